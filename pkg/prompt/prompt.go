// Package prompt turns audio segments and a style snapshot into the text
// prompts the generation backend consumes. Synthesis is pure: same inputs,
// same output, no I/O, no shared state.
package prompt

import "tunereel/pkg/model"

// Synthesize builds one VideoPrompt per segment. Output order matches input
// order and each prompt's Segment field aliases the corresponding input
// element, so callers can correlate prompts back to their segments by pointer.
func Synthesize(segments []model.AudioSegment, style model.StyleCustomization) []model.VideoPrompt {
	prompts := make([]model.VideoPrompt, len(segments))
	for i := range segments {
		seg := &segments[i]
		prompts[i] = model.VideoPrompt{
			Segment:           seg,
			Prompt:            style.Theme + " " + style.VisualStyle + " scene, " + seg.Description,
			VisualDescription: "A " + style.VisualStyle + " " + style.Theme + " visual representing " + seg.Description,
		}
	}
	return prompts
}
