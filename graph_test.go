// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tracePass records its lifecycle calls into a shared trace.
type tracePass struct {
	PassBase
	trace *[]string
}

func newTracePass(name string, trace *[]string) *tracePass {
	return &tracePass{PassBase: PassBase{PassName: name}, trace: trace}
}

func (tp *tracePass) Init(g *Graph) error {
	*tp.trace = append(*tp.trace, "init:"+tp.PassName)
	return nil
}

func (tp *tracePass) LoadResources(g *Graph) error {
	*tp.trace = append(*tp.trace, "load:"+tp.PassName)
	return nil
}

func (tp *tracePass) Execute(g *Graph, fc *FrameContext) error {
	*tp.trace = append(*tp.trace, "exec:"+tp.PassName)
	return nil
}

func (tp *tracePass) Destroy(g *Graph) {
	*tp.trace = append(*tp.trace, "destroy:"+tp.PassName)
}

func TestAddPassDuplicate(t *testing.T) {
	g := NewGraph("test", nil)
	var trace []string
	_, err := g.AddPass(newTracePass("scene", &trace))
	require.NoError(t, err)
	_, err = g.AddPass(newTracePass("scene", &trace))
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestPortsUnknownPass(t *testing.T) {
	g := NewGraph("test", nil)
	_, err := g.AddSource("nope", "color", AttachmentColor, OriginSelf)
	assert.ErrorIs(t, err, ErrUnknownPass)
	_, err = g.AddSink("nope", "in")
	assert.ErrorIs(t, err, ErrUnknownPass)
}

func TestLinkageUnknownEndpoints(t *testing.T) {
	g := NewGraph("test", nil)
	var trace []string
	_, err := g.AddPass(newTracePass("a", &trace))
	require.NoError(t, err)
	_, err = g.AddPass(newTracePass("b", &trace))
	require.NoError(t, err)
	_, err = g.AddSource("a", "color", AttachmentColor, OriginSelf)
	require.NoError(t, err)
	_, err = g.AddSink("b", "in")
	require.NoError(t, err)

	assert.ErrorIs(t, g.SetSinkLinkage("b", "missing", "a", "color"), ErrUnknownSink)
	assert.ErrorIs(t, g.SetSinkLinkage("b", "in", "a", "missing"), ErrUnknownSource)
	assert.ErrorIs(t, g.SetSinkLinkage("missing", "in", "a", "color"), ErrUnknownPass)
	assert.NoError(t, g.SetSinkLinkage("b", "in", "a", "color"))
}

func TestFinalizeUnboundSink(t *testing.T) {
	g := NewGraph("test", nil)
	var trace []string
	_, err := g.AddPass(newTracePass("a", &trace))
	require.NoError(t, err)
	_, err = g.AddSink("a", "in")
	require.NoError(t, err)

	err = g.Finalize()
	assert.ErrorIs(t, err, ErrUnboundSink)
	// no partial graph left runnable
	assert.ErrorIs(t, g.ExecuteFrame(NewFrameContext(0)), ErrNotFinalized)
	assert.ErrorIs(t, g.LoadResources(), ErrNotFinalized)
}

// Minimal 2-pass scenario: A produces A.color, B consumes it; A must
// execute before B.
func TestTwoPassGraph(t *testing.T) {
	g := NewGraph("test", nil)
	var trace []string
	_, err := g.AddPass(newTracePass("A", &trace))
	require.NoError(t, err)
	_, err = g.AddPass(newTracePass("B", &trace))
	require.NoError(t, err)
	_, err = g.AddSource("A", "color", AttachmentColor, OriginSelf)
	require.NoError(t, err)
	_, err = g.AddSink("B", "in")
	require.NoError(t, err)
	require.NoError(t, g.SetSinkLinkage("B", "in", "A", "color"))

	require.NoError(t, g.Finalize())
	require.NoError(t, g.LoadResources())

	trace = trace[:0]
	fc := NewFrameContext(64)
	require.NoError(t, g.ExecuteFrame(fc))
	assert.Equal(t, []string{"exec:A", "exec:B"}, trace)

	src, err := g.SinkSource("B", "in")
	require.NoError(t, err)
	assert.Equal(t, "color", src.Name)
}

// A consumer registered before its producer still executes after it:
// the execution order follows the declared edges, with registration
// order only as the tie-break.
func TestExecutionOrderFollowsEdges(t *testing.T) {
	g := NewGraph("test", nil)
	var trace []string
	for _, nm := range []string{"ui", "scene", "shadow"} {
		_, err := g.AddPass(newTracePass(nm, &trace))
		require.NoError(t, err)
	}
	_, err := g.AddSource("shadow", "shadowmap", AttachmentDepthStencil, OriginSelf)
	require.NoError(t, err)
	_, err = g.AddSource("scene", "color", AttachmentColor, OriginSelf)
	require.NoError(t, err)
	_, err = g.AddSink("scene", "shadowmap")
	require.NoError(t, err)
	_, err = g.AddSink("ui", "color")
	require.NoError(t, err)
	require.NoError(t, g.SetSinkLinkage("scene", "shadowmap", "shadow", "shadowmap"))
	require.NoError(t, g.SetSinkLinkage("ui", "color", "scene", "color"))

	require.NoError(t, g.Finalize())
	trace = trace[:0]
	require.NoError(t, g.ExecuteFrame(NewFrameContext(0)))
	assert.Equal(t, []string{"exec:shadow", "exec:scene", "exec:ui"}, trace)
}

func TestFinalizeCycle(t *testing.T) {
	g := NewGraph("test", nil)
	var trace []string
	for _, nm := range []string{"a", "b"} {
		_, err := g.AddPass(newTracePass(nm, &trace))
		require.NoError(t, err)
		_, err = g.AddSource(nm, "out", AttachmentColor, OriginSelf)
		require.NoError(t, err)
		_, err = g.AddSink(nm, "in")
		require.NoError(t, err)
	}
	require.NoError(t, g.SetSinkLinkage("a", "in", "b", "out"))
	require.NoError(t, g.SetSinkLinkage("b", "in", "a", "out"))
	assert.ErrorIs(t, g.Finalize(), ErrCycle)
}

func TestSetExecuteSkips(t *testing.T) {
	g := NewGraph("test", nil)
	var trace []string
	_, err := g.AddPass(newTracePass("shadow", &trace))
	require.NoError(t, err)
	_, err = g.AddPass(newTracePass("scene", &trace))
	require.NoError(t, err)
	require.NoError(t, g.Finalize())

	require.NoError(t, g.SetExecute("shadow", false))
	trace = trace[:0]
	require.NoError(t, g.ExecuteFrame(NewFrameContext(0)))
	assert.Equal(t, []string{"exec:scene"}, trace)

	require.NoError(t, g.SetExecute("shadow", true))
	trace = trace[:0]
	require.NoError(t, g.ExecuteFrame(NewFrameContext(0)))
	assert.Equal(t, []string{"exec:shadow", "exec:scene"}, trace)

	assert.ErrorIs(t, g.SetExecute("nope", false), ErrUnknownPass)
}

func TestMutateAfterFinalize(t *testing.T) {
	g := NewGraph("test", nil)
	var trace []string
	_, err := g.AddPass(newTracePass("a", &trace))
	require.NoError(t, err)
	require.NoError(t, g.Finalize())

	_, err = g.AddPass(newTracePass("b", &trace))
	assert.ErrorIs(t, err, ErrFinalized)
	_, err = g.AddSource("a", "color", AttachmentColor, OriginSelf)
	assert.ErrorIs(t, err, ErrFinalized)
	assert.ErrorIs(t, g.Finalize(), ErrFinalized)
}

func TestDestroyReverseOrder(t *testing.T) {
	g := NewGraph("test", nil)
	var trace []string
	_, err := g.AddPass(newTracePass("a", &trace))
	require.NoError(t, err)
	_, err = g.AddPass(newTracePass("b", &trace))
	require.NoError(t, err)
	require.NoError(t, g.Finalize())

	trace = trace[:0]
	g.Destroy()
	assert.Equal(t, []string{"destroy:b", "destroy:a"}, trace)
	assert.Equal(t, 0, g.NPasses())
}

// An Init failure aborts Finalize with a diagnostic naming the pass,
// leaving the graph unrunnable.
func TestInitFailureAborts(t *testing.T) {
	g := NewGraph("test", nil)
	var trace []string
	_, err := g.AddPass(newTracePass("ok", &trace))
	require.NoError(t, err)
	_, err = g.AddPass(&failPass{PassBase{PassName: "bad"}})
	require.NoError(t, err)

	err = g.Finalize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.ErrorIs(t, g.ExecuteFrame(NewFrameContext(0)), ErrNotFinalized)
}

type failPass struct {
	PassBase
}

func (fp *failPass) Init(g *Graph) error {
	return assert.AnError
}
