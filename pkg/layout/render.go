package layout

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/keygraph/pkg/elements"
	"github.com/matzehuels/keygraph/pkg/errors"
)

// SnapshotDOT converts an element graph into a labeled DOT graph for a
// static picture: keyword clusters with bold titles, detail boxes showing
// the description and relationship labels on the edges. Detail nodes
// without an image are drawn as small text-only boxes.
func SnapshotDOT(g *elements.Graph, cfg Config) string {
	styles := elements.DefaultStyles()
	detail, _ := styles.Lookup(elements.ClassDetail)
	edge, _ := styles.Lookup(elements.ClassEdge)

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  K=%s;\n", ftoa(springConstant(cfg)))
	fmt.Fprintf(&buf, "  maxiter=%d;\n", maxIterations[cfg.Quality])
	fmt.Fprintf(&buf, "  sep=\"+%s\";\n", ftoa(cfg.NodeSeparation/4))
	if cfg.Seed != 0 {
		fmt.Fprintf(&buf, "  start=%d;\n", cfg.Seed)
	}
	fmt.Fprintf(&buf, "  node [shape=box, style=\"rounded,filled\", fillcolor=%q, fontsize=15];\n",
		detail.Properties["background-color"])
	fmt.Fprintf(&buf, "  edge [color=%q, fontcolor=%q, fontsize=15, penwidth=3];\n",
		edge.Properties["line-color"], edge.Properties["color"])
	buf.WriteString("\n")

	index := make(map[string]int, len(g.Keywords))
	for i, k := range g.Keywords {
		d := g.Details[i]
		index[k.ID] = i
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", k.Label)
		buf.WriteString("    fontname=\"Helvetica-Bold\";\n")
		buf.WriteString("    style=rounded;\n")
		attrs := []string{fmt.Sprintf("label=%q", wrap(d.Label, 40))}
		if d.HasImage() {
			side := ftoa(d.Size / pointsPerInch)
			attrs = append(attrs,
				"width="+side, "height="+side,
				fmt.Sprintf("tooltip=%q", d.ImagePath))
		}
		fmt.Fprintf(&buf, "    n%d [%s];\n", i, strings.Join(attrs, ", "))
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	length := ftoa(cfg.IdealEdgeLength / pointsPerInch)
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  n%d -- n%d [len=%s, label=%q];\n", index[e.Source], index[e.Target], length, e.Label)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// wrap breaks s into lines of at most width runes at word boundaries.
func wrap(s string, width int) string {
	words := strings.Fields(s)
	var lines []string
	var line strings.Builder
	for _, w := range words {
		if line.Len() > 0 && line.Len()+1+len(w) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(w)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// RenderSVG lays g out with fdp and renders it to SVG.
func RenderSVG(ctx context.Context, g *elements.Graph, cfg Config) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "init graphviz")
	}
	defer gv.Close()

	graph, err := graphviz.ParseBytes([]byte(SnapshotDOT(g, cfg)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "parse DOT")
	}
	defer graph.Close()

	gv.SetLayout(graphviz.FDP)

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing scales with
// its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
