// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

// Pass is one discrete rendering stage in the graph (shadow map
// generation, opaque scene draw, UI overlay, ...).  Implementations
// hold their own backend state (renderpass object, pipelines,
// descriptor allocations), which is opaque to the graph.
//
// Lifecycle: a pass is registered at graph-build time, then:
//   - Init is called by [Graph.Finalize], in registration order.
//     Backend resources are allocated here.  Init must not assume any
//     other pass's sources exist yet.
//   - LoadResources is called by [Graph.LoadResources], after every
//     pass has initialized; reading other passes' sources is allowed.
//   - Execute is called once per frame by [Graph.ExecuteFrame],
//     in execution order, unless the pass is switched off with
//     [Graph.SetExecute].
//   - Destroy is called by [Graph.Destroy], in reverse execution
//     order.
type Pass interface {
	// Name returns the pass name, unique within the graph.
	Name() string

	// Init allocates the pass's backend resources.
	Init(g *Graph) error

	// LoadResources resolves resources that depend on other passes'
	// sources existing (e.g., binding an upstream shadow map).
	LoadResources(g *Graph) error

	// Execute records this pass's GPU work for the current frame.
	Execute(g *Graph, fc *FrameContext) error

	// Destroy releases the pass's backend resources.
	Destroy(g *Graph)
}

// PassBase provides a name and no-op lifecycle methods, for embedding
// in concrete passes that only need a subset of the lifecycle.
type PassBase struct {
	// PassName is the unique name of this pass.
	PassName string
}

func (pb *PassBase) Name() string { return pb.PassName }

func (pb *PassBase) Init(g *Graph) error { return nil }

func (pb *PassBase) LoadResources(g *Graph) error { return nil }

func (pb *PassBase) Execute(g *Graph, fc *FrameContext) error { return nil }

func (pb *PassBase) Destroy(g *Graph) {}

// passNode is the graph-owned record for a registered pass: the pass
// itself plus its declared ports, referenced by handle.
type passNode struct {
	pass Pass

	// doExecute gates per-frame execution; switched off to skip a
	// pass for a frame (e.g., a shadow pass with no casters) without
	// disturbing graph order.
	doExecute bool

	// sources and sinks are this pass's ports, in declaration order.
	sources []SourceHandle
	sinks   []SinkHandle

	sourceMap map[string]SourceHandle
	sinkMap   map[string]SinkHandle
}
