// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package rendergraph is the frame-execution core of a real-time renderer:
a directed graph of render passes connected by typed resource edges,
executed once per frame against a backend GPU device while keeping
multiple frames in flight.

A [Graph] is built once: passes are registered with [Graph.AddPass],
declare their resource ports with [Graph.AddSource] and [Graph.AddSink],
and are wired together with [Graph.SetSinkLinkage].  [Graph.Finalize]
validates that every sink is bound, computes the execution order from
the declared edges, and initializes backend resources for every pass.

Every frame, a [Frames] orchestrator acquires a frame-in-flight slot
(gated on that slot's completion fence so the CPU never reuses memory
the GPU is still reading), records the graph via [Graph.ExecuteFrame],
submits, presents, and advances to the next slot.  Swapchain loss and
resize are handled between frames by recreation, never mid-frame.

The backend GPU API is abstracted behind the [Device] interface; the
vkdevice subpackage provides a Vulkan implementation.
*/
package rendergraph
