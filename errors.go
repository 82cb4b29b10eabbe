// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import "errors"

// Build-time graph errors.  These are fatal to startup: a graph that
// fails to finalize is not left partially runnable.
var (
	// ErrDuplicateName is returned when registering a pass, source,
	// or sink under a name that is already taken on the same owner.
	ErrDuplicateName = errors.New("rendergraph: duplicate name")

	// ErrUnknownPass is returned when a named pass was never registered.
	ErrUnknownPass = errors.New("rendergraph: unknown pass")

	// ErrUnknownSource is returned when a sink linkage names a source
	// that does not exist on the named pass.
	ErrUnknownSource = errors.New("rendergraph: unknown source")

	// ErrUnknownSink is returned when a sink linkage names a sink
	// that does not exist on the named pass.
	ErrUnknownSink = errors.New("rendergraph: unknown sink")

	// ErrUnboundSink is returned by Finalize when a declared sink
	// was never bound to a source.
	ErrUnboundSink = errors.New("rendergraph: unbound sink")

	// ErrCycle is returned by Finalize when the sink→source edges
	// contain a dependency cycle, so no execution order exists.
	ErrCycle = errors.New("rendergraph: dependency cycle")

	// ErrFinalized is returned when graph structure is modified
	// after Finalize has succeeded.
	ErrFinalized = errors.New("rendergraph: graph already finalized")

	// ErrNotFinalized is returned by LoadResources and ExecuteFrame
	// when the graph has not been finalized.
	ErrNotFinalized = errors.New("rendergraph: graph not finalized")
)

// Transient per-frame surface conditions.  These are not failures:
// the frame orchestrator absorbs them, triggers swapchain or attachment
// recreation as needed, and skips the frame.  The caller retries on the
// next tick.
var (
	// ErrSurfaceOutOfDate is reported by a Device when the swapchain
	// no longer matches the surface and must be recreated.
	ErrSurfaceOutOfDate = errors.New("rendergraph: surface out of date")

	// ErrSurfaceSuboptimal is reported by a Device when presentation
	// still works but the swapchain is no longer an ideal match.
	ErrSurfaceSuboptimal = errors.New("rendergraph: surface suboptimal")

	// ErrSurfaceTooSmall is reported by a Device when the surface has
	// zero area (e.g., a minimized window); recreation is a no-op and
	// frames are skipped until the surface regains nonzero size.
	ErrSurfaceTooSmall = errors.New("rendergraph: surface too small")
)
