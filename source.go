// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

// MaxFramesInFlight is the maximum number of frames whose GPU work may
// be in flight at once, which bounds the per-slot replication of
// command streams, synchronization primitives, and binding state.
// Swapchains use 2 (double) or 3 (triple) buffered images.
const MaxFramesInFlight = 3

// PassHandle is a dense index identifying a registered pass within its
// Graph.  Handles remain valid for the life of the graph; passes are
// never removed individually.
type PassHandle int

// SourceHandle is a dense index identifying a declared source within
// its Graph.
type SourceHandle int

// SinkHandle is a dense index identifying a declared sink within its
// Graph.
type SinkHandle int

// NilHandle marks an unset handle (e.g., an unbound sink).
const NilHandle = -1

// SourceTypes are the kinds of resources a source can produce.
type SourceTypes int32

const (
	// AttachmentColor is a color render target.
	AttachmentColor SourceTypes = iota

	// AttachmentDepthStencil is a combined depth / stencil render target.
	AttachmentDepthStencil
)

func (st SourceTypes) String() string {
	switch st {
	case AttachmentColor:
		return "AttachmentColor"
	case AttachmentDepthStencil:
		return "AttachmentDepthStencil"
	}
	return "SourceTypesInvalid"
}

// SourceOrigins tag who owns the resource behind a source.
type SourceOrigins int32

const (
	// OriginGlobal resources are owned by the graph itself,
	// e.g., the swapchain color images and the shared depth buffer.
	OriginGlobal SourceOrigins = iota

	// OriginSelf resources are created and owned by the producing pass.
	OriginSelf

	// OriginOther resources are re-exported from elsewhere.
	OriginOther
)

func (so SourceOrigins) String() string {
	switch so {
	case OriginGlobal:
		return "OriginGlobal"
	case OriginSelf:
		return "OriginSelf"
	case OriginOther:
		return "OriginOther"
	}
	return "SourceOriginsInvalid"
}

// Source is a typed resource output port on a pass.  It carries one
// texture reference per frame-in-flight slot, because each slot may be
// rendering to a distinct image (most visibly for the swapchain).
type Source struct {
	// Name of this source, unique within its pass.
	Name string

	// Pass is the producing pass.
	Pass PassHandle

	// Type is the kind of resource produced.
	Type SourceTypes

	// Origin tags who owns the underlying resource.
	Origin SourceOrigins

	// Textures holds the per-frame-in-flight texture references.
	// For OriginGlobal sources these are filled by the graph from the
	// Device at finalize and refreshed after swapchain recreation;
	// OriginSelf passes fill their own during Init.
	Textures [MaxFramesInFlight]TextureRef
}

// Sink is a named resource input port on a pass.  After linkage it
// holds the handle of exactly one bound source; a sink left at
// NilHandle fails Finalize.
type Sink struct {
	// Name of this sink, unique within its pass.
	Name string

	// Pass is the consuming pass.
	Pass PassHandle

	// Bound is the handle of the bound source, or NilHandle.
	Bound SourceHandle
}
