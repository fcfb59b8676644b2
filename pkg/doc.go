// Package pkg provides the core libraries for Flowsankey financial flow
// diagrams.
//
// # Overview
//
// Flowsankey turns income-statement rows (source, target, current and
// previous period values) into a Sankey diagram whose node placement,
// sibling order, colors and images can be adjusted by hand. The pkg
// directory is organized into four areas:
//
//  1. Domain logic: [flow], [graph], [layout], [override], [balance]
//  2. Presentation: [scene], [render], [interact]
//  3. Orchestration: [pipeline]
//  4. Infrastructure: [store], [cache], [config], [httputil], [metrics]
//
// # Architecture
//
// The typical data flow:
//
//	Rows (file, paste, store)
//	         ↓
//	    [flow] package (classify each row as income, profit, expense)
//	         ↓
//	    [graph] package (deduplicated nodes, links, cycle exclusion)
//	         ↓
//	    [layout] package (columns, sibling order, node and link geometry)
//	         ↓
//	    [scene] package (manual offsets, colors, labels in pixels)
//	         ↓
//	    SVG/PNG/JSON output
//
// # Quick Start
//
//	c := flow.NewClassifier(flow.DefaultVocabulary())
//	g := graph.BuildWith(rows, c)
//
//	settings := override.Defaults()
//	l := layout.Compute(g, settings.LayoutOptions(g))
//
//	sc := scene.Build(g, l, settings, nil)
//	svg := sink.RenderSVG(sc)
//
// Edits go through the reducer so every entry point applies the same
// rules:
//
//	env := override.Env{Graph: g, Layout: l}
//	settings, changed := override.Apply(settings, override.MoveNode{
//	    Node:   "EBITDA",
//	    Offset: override.Offset{Y: -40},
//	}, env)
//
// # Main Packages
//
// [flow] - Rows, vocabulary-driven flow classification and pasted-table
// parsing.
//
// [graph] - The flow graph: nodes in first-seen order, dominant parents,
// column assignment and cycle-closing link exclusion.
//
// [layout] - Sankey geometry with memoization keyed by graph and options.
//
// [override] - The persisted settings document, the command reducer,
// sibling reordering, offset clamping and legacy order migration.
//
// [balance] - Inflow and outflow checks per node and for the whole
// statement, with exact decimal sums.
//
// [interact] - The pointer and keyboard state machine used by the editor.
//
// [pipeline] - The render pipeline (build, layout, render) with artifact
// caching, shared by the CLI and the HTTP service.
//
// [store] - Rows and settings persistence on files, SQLite or memory.
package pkg
