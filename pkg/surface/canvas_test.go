package surface

import (
	"slices"
	"testing"

	"github.com/matzehuels/keygraph/pkg/dataset"
	"github.com/matzehuels/keygraph/pkg/elements"
	"github.com/matzehuels/keygraph/pkg/layout"
)

func graph(t *testing.T) *elements.Graph {
	t.Helper()
	g, err := elements.Transform(dataset.Dataset{
		Keywords:    []dataset.Keyword{{ID: "A", Keyword: "a", Image: "a.png"}, {ID: "B", Keyword: "b"}},
		Connections: []dataset.Connection{{From: "A", To: "B", Relationship: "r"}},
	}, elements.Options{})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	return g
}

func TestCanvasLifecycle(t *testing.T) {
	c := NewCanvas()
	if c.Snapshot().Mounted {
		t.Fatal("new canvas should not be mounted")
	}

	c.Mount(graph(t), elements.DefaultStyles())
	f := c.Snapshot()
	if !f.Mounted || len(f.Visible) != 0 {
		t.Errorf("after Mount: %+v", f)
	}

	c.Show("A", "A-child", "ghost")
	if got := c.Snapshot().Visible; !slices.Equal(got, []string{"A", "A-child"}) {
		t.Errorf("Visible = %v", got)
	}

	c.Move(layout.Positions{"A": {X: 1, Y: 2}, "ghost": {X: 9, Y: 9}})
	f = c.Snapshot()
	if f.Positions["A"] != (layout.Point{X: 1, Y: 2}) {
		t.Errorf("Positions = %v", f.Positions)
	}
	if _, ok := f.Positions["ghost"]; ok {
		t.Error("unknown id should be ignored")
	}

	c.Unmount()
	f = c.Snapshot()
	if f.Mounted || len(f.Visible) != 0 || len(f.Positions) != 0 || c.Graph() != nil {
		t.Errorf("after Unmount: %+v", f)
	}
}

func TestCanvasVersions(t *testing.T) {
	c := NewCanvas()
	v0 := c.Snapshot().Version
	c.Mount(graph(t), nil)
	c.Show("A")
	if v := c.Snapshot().Version; v != v0+2 {
		t.Errorf("version = %d, want %d", v, v0+2)
	}
}

func TestCanvasIgnoresCallsWhenUnmounted(t *testing.T) {
	c := NewCanvas()
	c.Show("A")
	c.Move(layout.Positions{"A": {}})
	if f := c.Snapshot(); f.Version != 0 || len(f.Visible) != 0 {
		t.Errorf("unmounted canvas changed: %+v", f)
	}
}

func TestCanvasElements(t *testing.T) {
	c := NewCanvas()
	if c.Elements() != nil {
		t.Error("unmounted canvas should list no elements")
	}

	c.Mount(graph(t), elements.DefaultStyles())
	c.Show("A", "A-child")
	c.Move(layout.Positions{"A": {X: 5, Y: 6}})

	els := c.Elements()
	if len(els) != 5 {
		t.Fatalf("elements = %d, want 5", len(els))
	}

	a := els[0]
	if a.Group != "nodes" || !slices.Equal(a.Classes, []string{"keyword-node"}) || a.Position == nil || a.Position.X != 5 {
		t.Errorf("A = %+v", a)
	}
	detail := els[1]
	if detail.Data["parent"] != "A" || detail.Data["size"] != 100.0 || detail.Data["image"] != "/images/a.png" {
		t.Errorf("A-child data = %v", detail.Data)
	}
	b := els[2]
	if !slices.Equal(b.Classes, []string{"keyword-node", "hidden"}) {
		t.Errorf("B classes = %v", b.Classes)
	}
	edge := els[4]
	if edge.Group != "edges" || edge.Data["source"] != "A" || edge.Data["label"] != "r" || edge.Position != nil {
		t.Errorf("edge = %+v", edge)
	}
}

func TestSubscribe(t *testing.T) {
	c := NewCanvas()
	ch, cancel := c.Subscribe()

	if f := <-ch; f.Version != 0 {
		t.Errorf("initial frame version = %d", f.Version)
	}

	// Several updates without reading: only the latest is kept.
	c.Mount(graph(t), nil)
	c.Show("A")
	c.Show("B")
	f := <-ch
	if f.Version != 3 || !f.IsVisible("B") {
		t.Errorf("latest frame = %+v", f)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected queued frame %+v", extra)
	default:
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
	c.Show("A-child") // must not block or panic
}

func TestNop(t *testing.T) {
	var s Surface = Nop{}
	s.Mount(nil, nil)
	s.Show("x")
	s.Move(nil)
	s.Unmount()
}
