package layout

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/keygraph/pkg/elements"
	"github.com/matzehuels/keygraph/pkg/errors"
)

// pointsPerInch converts between Graphviz inches and viewport pixels.
const pointsPerInch = 72.0

// maxIterations maps quality to fdp's maxiter.
var maxIterations = map[string]int{
	QualityDraft:   150,
	QualityDefault: 300,
	QualityProof:   600,
}

// ToDOT converts an element graph to an undirected DOT graph for the fdp
// engine. Detail node i is named "n<i>" and sits alone in cluster "cluster_<i>"
// labeled with its keyword. Node names are positional so arbitrary ids never
// need quoting.
func ToDOT(g *elements.Graph, cfg Config) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=fdp;\n")
	fmt.Fprintf(&buf, "  K=%s;\n", ftoa(springConstant(cfg)))
	fmt.Fprintf(&buf, "  maxiter=%d;\n", maxIterations[cfg.Quality])
	fmt.Fprintf(&buf, "  sep=\"+%s\";\n", ftoa(cfg.NodeSeparation/2))
	fmt.Fprintf(&buf, "  pack=%d;\n", int(math.Round(cfg.ComponentSpacing)))
	buf.WriteString("  packmode=\"graph\";\n")
	buf.WriteString("  splines=false;\n")
	if cfg.Seed != 0 {
		fmt.Fprintf(&buf, "  start=%d;\n", cfg.Seed)
	}
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	index := make(map[string]int, len(g.Keywords))
	for i, k := range g.Keywords {
		d := g.Details[i]
		index[k.ID] = i
		side := ftoa(max(d.Size, elements.MinimalSize) / pointsPerInch)
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", k.Label)
		fmt.Fprintf(&buf, "    n%d [width=%s, height=%s];\n", i, side, side)
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	length := ftoa(cfg.IdealEdgeLength / pointsPerInch)
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  n%d -- n%d [len=%s];\n", index[e.Source], index[e.Target], length)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// springConstant scales the ideal edge length by the repulsion relative to
// its default; stronger repulsion spreads nodes further apart.
func springConstant(cfg Config) float64 {
	return cfg.IdealEdgeLength / pointsPerInch * math.Sqrt(cfg.NodeRepulsion/DefaultNodeRepulsion)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// parsePlain reads node centers from Graphviz "plain" output and maps them
// back to element ids. The y axis is flipped so y grows downwards, and
// coordinates are converted to pixels. Keyword nodes share their detail
// node's center.
func parsePlain(data []byte, g *elements.Graph) (Positions, error) {
	pos := make(Positions, g.NodeCount())
	var height float64

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "graph":
			if len(fields) < 4 {
				return nil, errors.New(errors.ErrCodeLayoutFailed, "malformed graph line: %q", sc.Text())
			}
			h, err := strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "graph height")
			}
			height = h
		case "node":
			if len(fields) < 4 {
				return nil, errors.New(errors.ErrCodeLayoutFailed, "malformed node line: %q", sc.Text())
			}
			i, ok := nodeIndex(fields[1])
			if !ok || i >= len(g.Keywords) {
				continue
			}
			x, errX := strconv.ParseFloat(fields[2], 64)
			y, errY := strconv.ParseFloat(fields[3], 64)
			if errX != nil || errY != nil {
				return nil, errors.New(errors.ErrCodeLayoutFailed, "malformed node position: %q", sc.Text())
			}
			p := Point{X: x * pointsPerInch, Y: (height - y) * pointsPerInch}
			pos[g.Details[i].ID] = p
			pos[g.Keywords[i].ID] = p
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "read layout output")
	}
	if len(pos) != g.NodeCount() {
		return nil, errors.New(errors.ErrCodeLayoutFailed, "layout placed %d of %d nodes", len(pos), g.NodeCount())
	}
	return pos, nil
}

func nodeIndex(name string) (int, bool) {
	name = strings.Trim(name, `"`)
	if !strings.HasPrefix(name, "n") {
		return 0, false
	}
	i, err := strconv.Atoi(name[1:])
	return i, err == nil && i >= 0
}
