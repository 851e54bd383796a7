// Package render groups the visual outputs of autotag.
//
// The [rulegraph] subpackage draws the placement decision table as a
// Graphviz diagram: one node per view type, one per (view, category) cell
// and one per tag family, with edges labelled by the anchor adjustment.
//
//	dot := rulegraph.ToDOT(engine.Rules(), rulegraph.Options{})
//	svg, err := rulegraph.RenderSVG(ctx, dot)
//
// [rulegraph]: github.com/matzehuels/autotag/pkg/render/rulegraph
package render
