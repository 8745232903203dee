package layout

import "testing"

func TestRowFixedChildren(t *testing.T) {
	e := NewFlexEngine()
	root := e.NewNode(nil)
	e.SetStyle(root, Style{Direction: Row, Width: Auto(), Height: Auto()})

	a := e.NewNode(root)
	e.SetStyle(a, Style{Width: Cells(5), Height: Cells(3)})
	b := e.NewNode(root)
	e.SetStyle(b, Style{Width: Cells(7), Height: Cells(3)})

	e.Compute(root, 20, 10)

	ra := e.Read(a)
	rb := e.Read(b)
	if ra.X != 0 || ra.W != 5 {
		t.Errorf("first child: %+v", ra)
	}
	if rb.X != 5 || rb.W != 7 {
		t.Errorf("second child should start after the first: %+v", rb)
	}
}

func TestFlexGrowDistributesRemainingSpace(t *testing.T) {
	e := NewFlexEngine()
	root := e.NewNode(nil)
	e.SetStyle(root, Style{Direction: Row, Width: Cells(20), Height: Cells(5)})

	a := e.NewNode(root)
	e.SetStyle(a, Style{Width: Value{Type: UnitAuto}, GrowFactor: 1, Basis: Cells(0), Height: Cells(5)})
	b := e.NewNode(root)
	e.SetStyle(b, Style{Width: Value{Type: UnitAuto}, GrowFactor: 1, Basis: Cells(0), Height: Cells(5)})

	e.Compute(root, 20, 5)

	ra := e.Read(a)
	rb := e.Read(b)
	if ra.W+rb.W != 20 {
		t.Errorf("flex children should consume all available main-axis space: %d + %d != 20", ra.W, rb.W)
	}
	if ra.W != rb.W {
		t.Errorf("equal grow factors should split space evenly: %d vs %d", ra.W, rb.W)
	}
}

func TestPercentResolvesAgainstParentContentBox(t *testing.T) {
	e := NewFlexEngine()
	root := e.NewNode(nil)
	e.SetStyle(root, Style{Direction: Row, Width: Cells(40), Height: Cells(10),
		PaddingLeft: Cells(2), PaddingRight: Cells(2)})

	a := e.NewNode(root)
	e.SetStyle(a, Style{Width: Percent(50), Height: Cells(10)})

	e.Compute(root, 40, 10)
	ra := e.Read(a)
	if ra.W != 18 {
		t.Errorf("50%% of a 36-wide content box should be 18, got %d", ra.W)
	}
}

func TestAbsoluteChildDoesNotAffectSiblingFlow(t *testing.T) {
	e := NewFlexEngine()
	root := e.NewNode(nil)
	e.SetStyle(root, Style{Direction: Row, Width: Cells(20), Height: Cells(5)})

	abs := e.NewNode(root)
	e.SetStyle(abs, Style{Position: PositionAbsolute, Width: Cells(5), Height: Cells(2),
		HasLeft: true, Left: Cells(1), HasTop: true, Top: Cells(1)})

	a := e.NewNode(root)
	e.SetStyle(a, Style{Width: Cells(5), Height: Cells(5)})

	e.Compute(root, 20, 5)
	ra := e.Read(a)
	if ra.X != 0 {
		t.Errorf("absolute sibling should not shift flow child position, got x=%d", ra.X)
	}
	rabs := e.Read(abs)
	if rabs.X != 1 || rabs.Y != 1 {
		t.Errorf("absolute child should resolve against left/top, got %+v", rabs)
	}
}

func TestJustifyCenter(t *testing.T) {
	e := NewFlexEngine()
	root := e.NewNode(nil)
	e.SetStyle(root, Style{Direction: Row, Justify: JustifyCenter, Width: Cells(10), Height: Cells(3)})
	a := e.NewNode(root)
	e.SetStyle(a, Style{Width: Cells(4), Height: Cells(3)})

	e.Compute(root, 10, 3)
	ra := e.Read(a)
	if ra.X != 3 {
		t.Errorf("centering a width-4 child in a width-10 row should land at x=3, got %d", ra.X)
	}
}
