package render

import (
	"github.com/lixenwraith/radarterm/terminal"
)

type rendererEntry struct {
	renderer Renderer
	priority RenderPriority
}

// Orchestrator coordinates the render pipeline
type Orchestrator struct {
	term      terminal.Terminal
	buffer    *Buffer
	renderers []rendererEntry
}

// NewOrchestrator creates an orchestrator with the given terminal and dimensions
func NewOrchestrator(term terminal.Terminal, width, height int) *Orchestrator {
	return &Orchestrator{
		term:      term,
		buffer:    NewBuffer(width, height),
		renderers: make([]rendererEntry, 0, 8),
	}
}

// Register adds a renderer at the specified priority. Maintains sorted order via insertion sort
func (o *Orchestrator) Register(r Renderer, priority RenderPriority) {
	entry := rendererEntry{renderer: r, priority: priority}

	// Equal priorities keep registration order
	pos := len(o.renderers)
	for i, e := range o.renderers {
		if priority < e.priority {
			pos = i
			break
		}
	}

	o.renderers = append(o.renderers, rendererEntry{})
	copy(o.renderers[pos+1:], o.renderers[pos:])
	o.renderers[pos] = entry
}

// Resize updates buffer dimensions and syncs terminal
func (o *Orchestrator) Resize(width, height int) {
	o.buffer.Resize(width, height)
	o.term.Sync()
}

// Buffer exposes the compositor, valid until the next RenderFrame
func (o *Orchestrator) Buffer() *Buffer {
	return o.buffer
}

// RenderFrame executes the render pipeline: clear, render all visible, flush
func (o *Orchestrator) RenderFrame(ctx Context) {
	o.buffer.Clear()

	for _, entry := range o.renderers {
		if vt, ok := entry.renderer.(VisibilityToggle); ok && !vt.IsVisible() {
			continue
		}
		entry.renderer.Render(ctx, o.buffer)
	}

	o.buffer.Flush(o.term)
}
