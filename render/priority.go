package render

// RenderPriority determines render order. Lower values render first
type RenderPriority int

const (
	PriorityBackground RenderPriority = iota
	PriorityGrid
	PriorityEffects
	PriorityTrails
	PriorityEntities
	PriorityObjective
	PriorityUI
)

func (p RenderPriority) String() string {
	switch p {
	case PriorityBackground:
		return "background"
	case PriorityGrid:
		return "grid"
	case PriorityEffects:
		return "effects"
	case PriorityTrails:
		return "trails"
	case PriorityEntities:
		return "entities"
	case PriorityObjective:
		return "objective"
	case PriorityUI:
		return "ui"
	}
	return "custom"
}
