package main

import "fmt"

// Channel allow-lists for the privileged/sandboxed boundary. The page may
// only reach Go through outbound channels, and Go only reaches the page
// through inbound ones. Anything else is silently dropped.
var (
	outboundChannels = map[string]bool{
		"file-select":    true,
		"video-download": true,
	}
	inboundChannels = map[string]bool{
		"file-selected":     true,
		"download-complete": true,
	}
)

// Bridge is the restricted message surface between the webview page and the
// host process.
type Bridge struct {
	handlers map[string]func(payload string)
	deliver  func(channel, payload string)
}

// NewBridge creates a bridge. deliver pushes an inbound message into the page.
func NewBridge(deliver func(channel, payload string)) *Bridge {
	return &Bridge{
		handlers: make(map[string]func(string)),
		deliver:  deliver,
	}
}

// Handle registers the host-side handler for an outbound channel.
// Registering a channel outside the allow-list is a programming error.
func (b *Bridge) Handle(channel string, fn func(payload string)) {
	if !outboundChannels[channel] {
		panic(fmt.Sprintf("bridge: %q is not an allowed outbound channel", channel))
	}
	b.handlers[channel] = fn
}

// Receive accepts a message from the page. Unknown channels are dropped
// without a response; the page cannot probe for handlers.
func (b *Bridge) Receive(channel, payload string) {
	if !outboundChannels[channel] {
		return
	}
	if fn, ok := b.handlers[channel]; ok {
		fn(payload)
	}
}

// Send pushes a message into the page if the channel is allowed inbound.
func (b *Bridge) Send(channel, payload string) {
	if !inboundChannels[channel] {
		return
	}
	if b.deliver != nil {
		b.deliver(channel, payload)
	}
}
