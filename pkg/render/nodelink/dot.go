package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/tierplan/pkg/catalog"
	errs "github.com/matzehuels/tierplan/pkg/errors"
	"github.com/matzehuels/tierplan/pkg/planner"
)

// Format is an output format of [Render].
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// Formats lists every supported format.
var Formats = []Format{FormatDOT, FormatSVG, FormatPNG}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	if !slices.Contains(Formats, f) {
		return "", errs.New(errs.ErrCodeInvalidFormat, "unsupported format %q (want dot, svg or png)", s)
	}
	return f, nil
}

// Options configures diagram generation.
type Options struct {
	// Detailed adds ingredients and products to recipe labels.
	Detailed bool

	// Direction is the Graphviz rankdir: "LR" (default) or "TB".
	Direction string
}

// ToDOT converts a plan to Graphviz DOT source.
func ToDOT(cat *catalog.Catalog, p *planner.Plan, opts Options) string {
	dir := opts.Direction
	if dir != "TB" {
		dir = "LR"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph plan {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=10, color=\"#666666\"];\n")

	for i, tier := range p.Tiers {
		fmt.Fprintf(&buf, "\n  subgraph cluster_tier%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", fmt.Sprintf("Tier %d", i))
		buf.WriteString("    style=\"rounded,dashed\";\n")
		buf.WriteString("    color=\"#999999\";\n")
		for _, pr := range tier {
			r := cat.Recipe(pr.Recipe)
			fmt.Fprintf(&buf, "    %s [label=%q];\n", nodeID(pr.Recipe), label(cat, r, pr.Rate, opts.Detailed))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, e := range edges(cat, p) {
		fmt.Fprintf(&buf, "  %s -> %s [label=%q];\n", nodeID(e.from), nodeID(e.to), cat.Good(e.good).Name)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(id catalog.RecipeID) string {
	return "r" + strconv.Itoa(int(id))
}

func label(cat *catalog.Catalog, r *catalog.Recipe, rate float64, detailed bool) string {
	head := fmt.Sprintf("%s\n×%s", r.Name, formatRate(rate))
	if !detailed {
		return head
	}
	var lines []string
	for _, a := range r.Ingredients {
		lines = append(lines, fmt.Sprintf("- %s %s", formatRate(a.Amount), cat.Good(a.Good).Name))
	}
	for _, a := range r.Products {
		lines = append(lines, fmt.Sprintf("+ %s %s", formatRate(a.Amount), cat.Good(a.Good).Name))
	}
	return head + "\n" + strings.Join(lines, "\n")
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}

type edge struct {
	from, to catalog.RecipeID
	good     catalog.GoodID
}

// edges links every producer in the plan to each planned recipe consuming
// one of its products, in plan order.
func edges(cat *catalog.Catalog, p *planner.Plan) []edge {
	inPlan := make(map[catalog.RecipeID]bool, p.RecipeCount())
	for _, tier := range p.Tiers {
		for _, pr := range tier {
			inPlan[pr.Recipe] = true
		}
	}

	var out []edge
	for _, tier := range p.Tiers {
		for _, pr := range tier {
			for _, in := range cat.Recipe(pr.Recipe).Ingredients {
				for _, producer := range cat.Good(in.Good).Production {
					if inPlan[producer] {
						out = append(out, edge{from: producer, to: pr.Recipe, good: in.Good})
					}
				}
			}
		}
	}
	return out
}

// Render produces the plan diagram in the requested format.
func Render(ctx context.Context, cat *catalog.Catalog, p *planner.Plan, format Format, opts Options) ([]byte, error) {
	dot := ToDOT(cat, p, opts)
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	case FormatPNG:
		return RenderPNG(ctx, dot)
	default:
		return nil, errs.New(errs.ErrCodeInvalidFormat, "unsupported format %q", format)
	}
}

// RenderSVG lays out DOT source with Graphviz and returns SVG bytes.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG lays out DOT source with Graphviz and returns PNG bytes.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the diagram scales with its
// container: origin at zero, width and height matching the view box.
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
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
