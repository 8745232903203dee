// Package layout wraps an external flexbox-style layout engine.
// The core only consumes the Engine capability (set style, compute, read
// computed metrics); the actual algorithm is an external collaborator.
// FlexEngine is the in-tree default: a generalized two-pass
// measure-then-arrange flexbox implementation.
package layout

// Direction is the main axis a node lays its children out along.
type Direction int

const (
	Row Direction = iota
	Column
)

// Justify controls main-axis distribution of children.
type Justify int

const (
	JustifyStart Justify = iota
	JustifyEnd
	JustifyCenter
	JustifySpaceBetween
	JustifySpaceAround
)

// Align controls cross-axis alignment of children.
type Align int

const (
	AlignStart Align = iota
	AlignEnd
	AlignCenter
	AlignStretch
)

// Wrap controls whether a row/column wraps onto further lines when it
// runs out of main-axis space.
type Wrap int

const (
	NoWrap Wrap = iota
	WrapLine
)

// PositionMode selects document flow vs. absolute positioning.
type PositionMode int

const (
	PositionRelative PositionMode = iota
	PositionAbsolute
)

// UnitType distinguishes a fixed cell count from a percentage of the
// parent's content box.
type UnitType int

const (
	UnitAuto UnitType = iota
	UnitCells
	UnitPercent
)

// Value is a dimension: either automatic, a fixed cell count, or a
// percentage resolved against the parent's content box.
type Value struct {
	Type UnitType
	N    float64
}

func Auto() Value             { return Value{Type: UnitAuto} }
func Cells(n float64) Value   { return Value{Type: UnitCells, N: n} }
func Percent(n float64) Value { return Value{Type: UnitPercent, N: n} }

// Style mirrors the property set this requires the adapter to support.
type Style struct {
	Direction Direction
	Justify   Justify
	Align     Align
	Wrap      Wrap

	GrowFactor   float64
	ShrinkFactor float64
	Basis        Value

	Width, Height       Value
	MinWidth, MinHeight Value
	MaxWidth, MaxHeight Value

	PaddingTop, PaddingRight, PaddingBottom, PaddingLeft Value
	MarginTop, MarginRight, MarginBottom, MarginLeft     Value
	Gap Value

	Position                        PositionMode
	Left, Top, Right, Bottom        Value
	HasLeft, HasTop, HasRight, HasBottom bool
}

// DefaultStyle is an auto-sized, row-direction, start-aligned style —
// the zero-configuration leaf node.
func DefaultStyle() Style {
	return Style{Width: Auto(), Height: Auto(), Basis: Auto()}
}

// Rect is the computed box for one node, in cell units.
type Rect struct {
	X, Y, W, H int
}

// Engine is the capability a layout node provider must satisfy:
// set a node's style, compute the tree, and read back computed metrics.
type Engine interface {
	// NewNode allocates a layout node owned by the engine, with an
	// optional parent (nil for the root).
	NewNode(parent Node) Node
	// Release frees a node's engine-side resources; called when the
	// owning Renderable is destroyed.
	Release(n Node)
	// SetStyle applies a style to a node and marks its subtree dirty.
	SetStyle(n Node, style Style)
	// Compute runs layout for the subtree rooted at n within the given
	// available size.
	Compute(n Node, availableW, availableH int)
	// Read returns n's computed metrics in cell units, rounded half-to-
	// even with ties broken toward smaller x/y (top-left bias).
	Read(n Node) Rect
}

// Node is an opaque handle into an Engine's internal node storage.
type Node interface{}
