// Package rulegraph draws the placement decision table as a graph: each
// view type points at the categories it tags, and each category cell points
// at the tag symbol it uses, labelled with the anchor adjustment.
//
//	dot := rulegraph.ToDOT(engine.Rules(), rulegraph.Options{Families: families})
//	svg, err := rulegraph.RenderSVG(ctx, dot)
//
// Rendering runs Graphviz in-process through go-graphviz.
package rulegraph

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/placement"
	"github.com/matzehuels/autotag/pkg/symbols"
	"github.com/matzehuels/autotag/pkg/tag"
)

// Options configures the diagram.
type Options struct {
	// Families labels symbol nodes with their tag family. Nil uses the
	// default families.
	Families symbols.FamilyNames
}

// ToDOT converts rules to Graphviz DOT. Rules are emitted in the order
// given, so sorted input yields stable output.
func ToDOT(rules []placement.Rule, opts Options) string {
	families := opts.Families
	if families == nil {
		families = symbols.DefaultFamilies()
	}

	var buf bytes.Buffer
	buf.WriteString("digraph Rules {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	views := map[tag.ViewType]bool{}
	syms := map[tag.Category]bool{}
	for _, r := range rules {
		if !views[r.View] {
			views[r.View] = true
			fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=lightblue];\n", viewID(r.View), r.View.String())
		}
		fmt.Fprintf(&buf, "  %q [label=%q];\n", cellID(r), r.Category.String())
		for _, s := range r.Symbols() {
			if !syms[s] {
				syms[s] = true
				label := s.String() + "\n" + families[s]
				fmt.Fprintf(&buf, "  %q [label=%q, shape=note, fillcolor=lightyellow];\n", symbolID(s), label)
			}
		}
	}

	buf.WriteString("\n")
	for _, r := range rules {
		fmt.Fprintf(&buf, "  %q -> %q;\n", viewID(r.View), cellID(r))
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", cellID(r), symbolID(r.Symbol), adjustLabel(r))
		if r.CurtainSymbol.Valid() {
			fmt.Fprintf(&buf, "  %q -> %q [label=\"curtain\", style=dashed];\n", cellID(r), symbolID(r.CurtainSymbol))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func viewID(v tag.ViewType) string   { return "view:" + v.String() }
func cellID(r placement.Rule) string { return "cell:" + r.View.String() + "/" + r.Category.Slug() }
func symbolID(c tag.Category) string { return "symbol:" + c.Slug() }

func adjustLabel(r placement.Rule) string {
	switch r.Adjust {
	case placement.AdjustOffsetAnchor, placement.AdjustPostOffset:
		return r.Adjust.String() + " " + r.Offset.String()
	default:
		return r.Adjust.String()
	}
}

// =============================================================================
// Rendering
// =============================================================================

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz point-based size attributes with
// a zero-origin viewBox so the SVG scales in browsers.
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

	open := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(open))
}

// Formats lists the output formats accepted by Render.
var Formats = []string{"dot", "svg", "png"}

// Render produces the diagram in the named format.
func Render(ctx context.Context, rules []placement.Rule, opts Options, format string) ([]byte, error) {
	dot := ToDOT(rules, opts)
	switch strings.ToLower(format) {
	case "dot", "gv":
		return []byte(dot), nil
	case "svg":
		return RenderSVG(ctx, dot)
	case "png":
		return RenderPNG(ctx, dot)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format %q (want %s)", format, strings.Join(Formats, ", "))
	}
}
