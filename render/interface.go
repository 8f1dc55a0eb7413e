package render

// Renderer is one layer of the radar frame
type Renderer interface {
	Render(ctx Context, buf *Buffer)
}

// VisibilityToggle is optionally implemented for runtime enable/disable
type VisibilityToggle interface {
	IsVisible() bool
}
