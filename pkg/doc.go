// Package pkg provides the core libraries for autotag, which decides where
// annotation tags go for the elements of a building model view.
//
// # Overview
//
// The pkg directory is organized into three areas:
//
//  1. Domain: [tag], [geom], [anchor], [symbols], [placement], [scene]
//  2. Orchestration: [pipeline] (validate, collect, decide, apply)
//  3. Infrastructure: [cache], [config], [errors], [observability], [render]
//
// # Architecture
//
// The typical data flow:
//
//	Snapshot (JSON, YAML or scene script)
//	         ↓
//	    [scene] package (decode, validate, collect taggable elements)
//	         ↓
//	    [anchor] package (one anchor point per element)
//	         ↓
//	    [placement] package (view × category decision table)
//	         ↓
//	    [pipeline] package (run, cache, apply in one transaction)
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/autotag/pkg/document"
//	    "github.com/matzehuels/autotag/pkg/pipeline"
//	    "github.com/matzehuels/autotag/pkg/scene"
//	)
//
//	snap, _ := scene.Import("plan.json")
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, _ := runner.Execute(context.Background(), snap, pipeline.Options{})
//	report, _ := runner.Apply(context.Background(), document.New(), res)
//
// [tag]: github.com/matzehuels/autotag/pkg/tag
// [geom]: github.com/matzehuels/autotag/pkg/geom
// [anchor]: github.com/matzehuels/autotag/pkg/anchor
// [symbols]: github.com/matzehuels/autotag/pkg/symbols
// [placement]: github.com/matzehuels/autotag/pkg/placement
// [scene]: github.com/matzehuels/autotag/pkg/scene
// [pipeline]: github.com/matzehuels/autotag/pkg/pipeline
// [cache]: github.com/matzehuels/autotag/pkg/cache
// [config]: github.com/matzehuels/autotag/pkg/config
// [errors]: github.com/matzehuels/autotag/pkg/errors
// [observability]: github.com/matzehuels/autotag/pkg/observability
// [render]: github.com/matzehuels/autotag/pkg/render
package pkg
