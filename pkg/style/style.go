// Package style holds the current style customization and hands out
// immutable snapshots of it.
package style

import (
	"sync"

	"tunereel/pkg/config"
	"tunereel/pkg/model"
)

// Partial carries a style edit. Nil fields keep their current value;
// set fields replace it. Updates merge field by field, unlike generation
// progress which is always replaced wholesale.
type Partial struct {
	Theme            *string   `json:"theme,omitempty"`
	ColorPalette     *[]string `json:"color_palette,omitempty"`
	VisualStyle      *string   `json:"visual_style,omitempty"`
	EffectsIntensity *float64  `json:"effects_intensity,omitempty"`
}

// Listener is notified with a snapshot after every applied update.
type Listener func(model.StyleCustomization)

// Store is a concurrency-safe holder for the active style.
type Store struct {
	mu        sync.RWMutex
	current   model.StyleCustomization
	listeners []Listener
}

// NewStore seeds the store from the configured initial style.
func NewStore(cfg config.StyleConfig) *Store {
	return &Store{
		current: model.StyleCustomization{
			Theme:            cfg.Theme,
			ColorPalette:     append([]string(nil), cfg.ColorPalette...),
			VisualStyle:      cfg.VisualStyle,
			EffectsIntensity: cfg.EffectsIntensity,
		},
	}
}

// Current returns a snapshot of the active style. Mutating the returned
// value never affects the store.
func (s *Store) Current() model.StyleCustomization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Update merges the partial edit into the current style and notifies
// listeners with the resulting snapshot.
func (s *Store) Update(p Partial) model.StyleCustomization {
	s.mu.Lock()
	if p.Theme != nil {
		s.current.Theme = *p.Theme
	}
	if p.ColorPalette != nil {
		s.current.ColorPalette = append([]string(nil), (*p.ColorPalette)...)
	}
	if p.VisualStyle != nil {
		s.current.VisualStyle = *p.VisualStyle
	}
	if p.EffectsIntensity != nil {
		s.current.EffectsIntensity = *p.EffectsIntensity
	}
	snap := s.current.Clone()
	listeners := s.listeners
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
	return snap
}

// Subscribe registers a listener for future updates.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}
