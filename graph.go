// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"fmt"
	"image/color"
	"log/slog"

	"cogentcore.org/core/base/ordmap"
)

// Graph is a directed graph of render passes connected by typed
// resource edges (sources produced by one pass, sinks consumed by
// another).  It is built once, finalized once, and then executed once
// per frame.  Passes, sources, and sinks live in dense graph-owned
// slices and are referenced by integer handles, so nothing dangles
// when the swapchain or graph is rebuilt.
type Graph struct {
	// Name is an optional name for diagnostics.
	Name string

	// Device is the backend this graph records against.
	// It is owned by the frame orchestrator; the graph borrows it.
	Device Device

	// passMap is the registration-ordered name registry.
	passMap ordmap.Map[string, PassHandle]

	passes  []passNode
	sources []Source
	sinks   []Sink

	// order is the execution order computed at Finalize: a
	// topological order over the sink→source edges, with
	// registration order as the tie-break.
	order []PassHandle

	// clearColor and clearDepth/clearStencil apply to the global
	// color and depth/stencil sources at the start of the frame.
	clearColor   color.RGBA
	clearDepth   float32
	clearStencil uint32

	finalized bool
}

// NewGraph returns a new Graph rendering through the given device.
func NewGraph(name string, dev Device) *Graph {
	g := &Graph{Name: name, Device: dev}
	g.clearColor = color.RGBA{A: 255}
	g.clearDepth = 1
	return g
}

// SetClearColor sets the clear color applied to the global color
// source at the start of each frame.
func (g *Graph) SetClearColor(c color.Color) {
	g.clearColor = color.RGBAModel.Convert(c).(color.RGBA)
}

// SetClearDepthStencil sets the clear values for the global
// depth/stencil source.
func (g *Graph) SetClearDepthStencil(depth float32, stencil uint32) {
	g.clearDepth = depth
	g.clearStencil = stencil
}

// ClearColor returns the configured clear color.
func (g *Graph) ClearColor() color.RGBA { return g.clearColor }

// ClearDepthStencil returns the configured depth and stencil clear values.
func (g *Graph) ClearDepthStencil() (float32, uint32) {
	return g.clearDepth, g.clearStencil
}

// AddPass registers a pass.  Returns ErrDuplicateName if a pass with
// the same name is already registered, and ErrFinalized after
// Finalize.
func (g *Graph) AddPass(p Pass) (PassHandle, error) {
	if g.finalized {
		return NilHandle, ErrFinalized
	}
	name := p.Name()
	if _, has := g.passMap.ValueByKeyTry(name); has {
		return NilHandle, fmt.Errorf("%w: pass %q", ErrDuplicateName, name)
	}
	h := PassHandle(len(g.passes))
	g.passes = append(g.passes, passNode{
		pass:      p,
		doExecute: true,
		sourceMap: make(map[string]SourceHandle),
		sinkMap:   make(map[string]SinkHandle),
	})
	g.passMap.Add(name, h)
	return h, nil
}

// AddSource declares a resource output port on a named pass.
// Returns ErrUnknownPass if the pass was never registered, and
// ErrDuplicateName if the pass already has a source of that name.
func (g *Graph) AddSource(passName, srcName string, typ SourceTypes, origin SourceOrigins) (SourceHandle, error) {
	if g.finalized {
		return NilHandle, ErrFinalized
	}
	ph, has := g.passMap.ValueByKeyTry(passName)
	if !has {
		return NilHandle, fmt.Errorf("%w: %q adding source %q", ErrUnknownPass, passName, srcName)
	}
	pn := &g.passes[ph]
	if _, has := pn.sourceMap[srcName]; has {
		return NilHandle, fmt.Errorf("%w: source %q on pass %q", ErrDuplicateName, srcName, passName)
	}
	h := SourceHandle(len(g.sources))
	g.sources = append(g.sources, Source{Name: srcName, Pass: ph, Type: typ, Origin: origin})
	pn.sources = append(pn.sources, h)
	pn.sourceMap[srcName] = h
	return h, nil
}

// AddSink declares a resource input port on a named pass.
// Returns ErrUnknownPass if the pass was never registered, and
// ErrDuplicateName if the pass already has a sink of that name.
func (g *Graph) AddSink(passName, sinkName string) (SinkHandle, error) {
	if g.finalized {
		return NilHandle, ErrFinalized
	}
	ph, has := g.passMap.ValueByKeyTry(passName)
	if !has {
		return NilHandle, fmt.Errorf("%w: %q adding sink %q", ErrUnknownPass, passName, sinkName)
	}
	pn := &g.passes[ph]
	if _, has := pn.sinkMap[sinkName]; has {
		return NilHandle, fmt.Errorf("%w: sink %q on pass %q", ErrDuplicateName, sinkName, passName)
	}
	h := SinkHandle(len(g.sinks))
	g.sinks = append(g.sinks, Sink{Name: sinkName, Pass: ph, Bound: NilHandle})
	pn.sinks = append(pn.sinks, h)
	pn.sinkMap[sinkName] = h
	return h, nil
}

// SetSinkLinkage binds a sink on one pass to a source on another,
// forming a dependency edge.  Returns ErrUnknownPass, ErrUnknownSink,
// or ErrUnknownSource if any endpoint is missing.
func (g *Graph) SetSinkLinkage(passName, sinkName, srcPassName, srcName string) error {
	if g.finalized {
		return ErrFinalized
	}
	ph, has := g.passMap.ValueByKeyTry(passName)
	if !has {
		return fmt.Errorf("%w: %q linking sink %q", ErrUnknownPass, passName, sinkName)
	}
	sh, has := g.passes[ph].sinkMap[sinkName]
	if !has {
		return fmt.Errorf("%w: %q on pass %q", ErrUnknownSink, sinkName, passName)
	}
	sph, has := g.passMap.ValueByKeyTry(srcPassName)
	if !has {
		return fmt.Errorf("%w: %q linking source %q", ErrUnknownPass, srcPassName, srcName)
	}
	srh, has := g.passes[sph].sourceMap[srcName]
	if !has {
		return fmt.Errorf("%w: %q on pass %q", ErrUnknownSource, srcName, srcPassName)
	}
	g.sinks[sh].Bound = srh
	return nil
}

// Finalize validates the graph, computes the execution order, and
// initializes every pass's backend resources.  Any failure is fatal
// to startup: the graph is left unrunnable and the error names the
// failing pass or port.
//
// Validation requires every declared sink to be bound to a source
// (ErrUnboundSink otherwise).  The execution order is a topological
// order of the sink→source dependency edges, tie-broken by
// registration order, so author-specified orderings are preserved
// whenever the edges permit them; cyclic linkage returns ErrCycle.
// Pass Init runs in registration order and must not assume other
// passes' resources exist; use [Pass.LoadResources] for that.
func (g *Graph) Finalize() error {
	if g.finalized {
		return ErrFinalized
	}
	for i := range g.sinks {
		sk := &g.sinks[i]
		if sk.Bound == NilHandle {
			return fmt.Errorf("%w: sink %q on pass %q", ErrUnboundSink, sk.Name, g.passName(sk.Pass))
		}
	}
	order, err := g.topoOrder()
	if err != nil {
		return err
	}
	g.order = order
	g.refreshGlobalSources()
	for h := range g.passes {
		pn := &g.passes[h]
		if err := pn.pass.Init(g); err != nil {
			return fmt.Errorf("rendergraph: pass %q init: %w", pn.pass.Name(), err)
		}
	}
	g.finalized = true
	slog.Debug("rendergraph.Graph finalized", "graph", g.Name,
		"passes", len(g.passes), "sources", len(g.sources), "sinks", len(g.sinks))
	return nil
}

// topoOrder computes a topological order over the sink→source edges
// using Kahn's algorithm, scanning candidates in registration order so
// that order is the tie-break.
func (g *Graph) topoOrder() ([]PassHandle, error) {
	np := len(g.passes)
	indeg := make([]int, np)
	deps := make([][]PassHandle, np) // producer → consumers
	for i := range g.sinks {
		sk := &g.sinks[i]
		prod := g.sources[sk.Bound].Pass
		if prod == sk.Pass {
			continue // self-edges (re-exported own source) impose no order
		}
		deps[prod] = append(deps[prod], sk.Pass)
		indeg[sk.Pass]++
	}
	order := make([]PassHandle, 0, np)
	done := make([]bool, np)
	for len(order) < np {
		found := false
		for h := 0; h < np; h++ {
			if !done[h] && indeg[h] == 0 {
				done[h] = true
				order = append(order, PassHandle(h))
				for _, c := range deps[h] {
					indeg[c]--
				}
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w involving pass %q", ErrCycle, g.firstCyclic(done))
		}
	}
	return order, nil
}

// firstCyclic names the first registered pass still stuck in a cycle.
func (g *Graph) firstCyclic(done []bool) string {
	for h := range g.passes {
		if !done[h] {
			return g.passes[h].pass.Name()
		}
	}
	return "?"
}

// LoadResources runs every pass's LoadResources in execution order.
// Must be called after Finalize; passes may read other passes' sources
// here.  A failure aborts with a diagnostic naming the pass.
func (g *Graph) LoadResources() error {
	if !g.finalized {
		return ErrNotFinalized
	}
	for _, h := range g.order {
		pn := &g.passes[h]
		if err := pn.pass.LoadResources(g); err != nil {
			return fmt.Errorf("rendergraph: pass %q load resources: %w", pn.pass.Name(), err)
		}
	}
	return nil
}

// ExecuteFrame records every active pass for the current frame, in
// execution order, passing frame-scoped state through fc.  Passes
// switched off with SetExecute are skipped without disturbing order.
func (g *Graph) ExecuteFrame(fc *FrameContext) error {
	if !g.finalized {
		return ErrNotFinalized
	}
	for _, h := range g.order {
		pn := &g.passes[h]
		if !pn.doExecute {
			continue
		}
		if err := pn.pass.Execute(g, fc); err != nil {
			return fmt.Errorf("rendergraph: pass %q execute: %w", pn.pass.Name(), err)
		}
	}
	return nil
}

// SetExecute switches per-frame execution of a named pass on or off.
func (g *Graph) SetExecute(passName string, on bool) error {
	ph, has := g.passMap.ValueByKeyTry(passName)
	if !has {
		return fmt.Errorf("%w: %q", ErrUnknownPass, passName)
	}
	g.passes[ph].doExecute = on
	return nil
}

// Destroy tears down all passes in reverse execution order and
// releases the graph's own records.  The Device is not destroyed;
// it is owned by the frame orchestrator.
func (g *Graph) Destroy() {
	if g.order != nil {
		for i := len(g.order) - 1; i >= 0; i-- {
			g.passes[g.order[i]].pass.Destroy(g)
		}
	} else { // never ordered; tear down in reverse registration
		for i := len(g.passes) - 1; i >= 0; i-- {
			g.passes[i].pass.Destroy(g)
		}
	}
	g.passes = nil
	g.sources = nil
	g.sinks = nil
	g.order = nil
	g.passMap = ordmap.Map[string, PassHandle]{}
	g.finalized = false
}

// refreshGlobalSources fills OriginGlobal sources from the device's
// swapchain and depth attachments.  Called at Finalize and again by
// the frame orchestrator after swapchain or attachment recreation, so
// texture generations stay current.
func (g *Graph) refreshGlobalSources() {
	if g.Device == nil {
		return
	}
	sct := g.Device.SwapchainTextures()
	dt := g.Device.DepthTexture()
	for i := range g.sources {
		src := &g.sources[i]
		if src.Origin != OriginGlobal {
			continue
		}
		switch src.Type {
		case AttachmentColor:
			for s := 0; s < MaxFramesInFlight && s < len(sct); s++ {
				src.Textures[s] = sct[s]
			}
		case AttachmentDepthStencil:
			for s := 0; s < MaxFramesInFlight; s++ {
				src.Textures[s] = dt
			}
		}
	}
}

// NPasses returns the number of registered passes.
func (g *Graph) NPasses() int { return len(g.passes) }

// PassByName returns the registered pass of the given name.
func (g *Graph) PassByName(name string) (Pass, error) {
	ph, has := g.passMap.ValueByKeyTry(name)
	if !has {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPass, name)
	}
	return g.passes[ph].pass, nil
}

// Source returns the source for the given handle.
func (g *Graph) Source(h SourceHandle) *Source {
	return &g.sources[h]
}

// SourceByName returns a named source on a named pass.
func (g *Graph) SourceByName(passName, srcName string) (*Source, error) {
	ph, has := g.passMap.ValueByKeyTry(passName)
	if !has {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPass, passName)
	}
	sh, has := g.passes[ph].sourceMap[srcName]
	if !has {
		return nil, fmt.Errorf("%w: %q on pass %q", ErrUnknownSource, srcName, passName)
	}
	return &g.sources[sh], nil
}

// SinkSource returns the source bound to a named sink on a named
// pass: what a pass calls during Execute to read its input.
func (g *Graph) SinkSource(passName, sinkName string) (*Source, error) {
	ph, has := g.passMap.ValueByKeyTry(passName)
	if !has {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPass, passName)
	}
	sh, has := g.passes[ph].sinkMap[sinkName]
	if !has {
		return nil, fmt.Errorf("%w: %q on pass %q", ErrUnknownSink, sinkName, passName)
	}
	sk := &g.sinks[sh]
	if sk.Bound == NilHandle {
		return nil, fmt.Errorf("%w: sink %q on pass %q", ErrUnboundSink, sinkName, passName)
	}
	return &g.sources[sk.Bound], nil
}

// ExecOrder returns the execution order computed at Finalize.
func (g *Graph) ExecOrder() []PassHandle { return g.order }

// passName returns the name for a pass handle, for diagnostics.
func (g *Graph) passName(h PassHandle) string {
	return g.passes[h].pass.Name()
}
