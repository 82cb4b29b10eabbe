// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"cogentcore.org/rendergraph/freelist"
)

// fenceTimeout bounds the wait on a slot's completion fence.  A fence
// that stays unsignaled this long means the GPU is wedged; there is no
// defined recovery, so the wait panics rather than corrupt state.
const fenceTimeout = 10 * time.Second

// slotPhases is the per-slot recording state machine:
// Ready → Recording → RecordingEnded → Submitted → (fence) → Ready.
// Driving a slot out of order is a programming error and panics.
type slotPhases int32

const (
	slotReady slotPhases = iota
	slotRecording
	slotRecordingEnded
	slotSubmitted
)

func (sp slotPhases) String() string {
	switch sp {
	case slotReady:
		return "Ready"
	case slotRecording:
		return "Recording"
	case slotRecordingEnded:
		return "RecordingEnded"
	case slotSubmitted:
		return "Submitted"
	}
	return "Invalid"
}

// FrameResources is the per-frame-in-flight bundle for one slot.
// The command stream, image-available and work-complete semaphores,
// and completion fence live in the backend Device, indexed by slot
// with lifetime tied 1:1 to this set; the core tracks the slot's
// recording phase and its transient staging suballocator here.
// A slot's fence must signal before anything in the bundle is reused.
type FrameResources struct {
	// Index is this slot's frame-in-flight index.
	Index int

	// Staging carves transient ranges from this slot's staging
	// buffer.  It is reset wholesale every frame: staged bytes do not
	// persist across frames.
	Staging *freelist.List

	phase slotPhases
}

// Frames orchestrates the per-frame protocol across N frame-in-flight
// slots: fence-gated slot reuse, image acquisition, recording through
// the graph, submission, presentation, and swapchain/attachment
// recreation on resize.  It owns the Device; the graph and passes
// borrow it.  All methods are driven from the single recording thread.
type Frames struct {
	// Device is the backend device, owned by this orchestrator.
	Device Device

	// Graph is the rendergraph recorded each frame.
	Graph *Graph

	// Slots holds the per-frame-in-flight resource sets.
	Slots []*FrameResources

	// Current is the active frame-in-flight index.
	Current int

	// FrameNumber counts successfully presented frames.
	FrameNumber uint64

	// sizeGeneration increments on every reported surface resize;
	// lastSizeGeneration trails it until the swapchain has been
	// recreated for the new size.
	sizeGeneration     uint64
	lastSizeGeneration uint64

	// recreating guards against re-entering swapchain recreation.
	recreating bool

	// outOfDate is set when acquire or present reports the swapchain
	// stale, forcing recreation on the next frame.
	outOfDate bool

	// pendingResize defers attachment (depth) resize until the new
	// swapchain has cycled through all slots once, counted by
	// skipFrames, since in-flight command streams may still reference
	// the old attachments.
	pendingResize bool
	skipFrames    int

	// size is the most recently reported surface size.
	size image.Point

	// stagingSize is the per-slot staging capacity, kept for slots
	// added when recreation changes the frame-in-flight count.
	stagingSize int
}

// NewFrames returns a Frames orchestrator for the given device and
// graph, with one FrameResources set per swapchain image, each with a
// staging suballocator of stagingSize bytes.
func NewFrames(dev Device, g *Graph, stagingSize int) *Frames {
	n := dev.FrameCount()
	fs := &Frames{Device: dev, Graph: g, size: dev.SurfaceSize(), stagingSize: stagingSize}
	fs.Slots = make([]*FrameResources, n)
	for i := range fs.Slots {
		fs.Slots[i] = &FrameResources{Index: i, Staging: freelist.New(stagingSize)}
	}
	return fs
}

// N returns the number of frame-in-flight slots.
func (fs *Frames) N() int { return len(fs.Slots) }

// SetSize reports a new framebuffer size (e.g., from the windowing
// system's resize callback).  Recreation happens at the start of the
// next frame, never mid-frame.
func (fs *Frames) SetSize(size image.Point) {
	fs.size = size
	fs.sizeGeneration++
	slog.Debug("rendergraph.Frames resized", "size", size, "generation", fs.sizeGeneration)
}

// RenderFrame runs the full per-frame protocol: prepare surface, wait
// the slot's fence, acquire an image, record the graph, submit, and
// present, then advance to the next slot.
//
// rendered is false when the frame was skipped for a transient
// surface condition (resize in progress, zero-area surface, swapchain
// out of date); the caller retries next tick.  err is non-nil only
// for genuine failures.  The caller sets fc.DeltaTime before each
// call; all other per-frame fields of fc are managed here.
func (fs *Frames) RenderFrame(fc *FrameContext) (rendered bool, err error) {
	ready, err := fs.prepareSurface()
	if err != nil || !ready {
		return false, err
	}

	slot := fs.Current
	sr := fs.Slots[slot]

	// Sole blocking point bounding CPU/GPU overlap: the slot's prior
	// GPU work must drain before any of its resources are reused.
	if err := fs.Device.WaitFence(slot, fenceTimeout); err != nil {
		panic(fmt.Sprintf("rendergraph: fence wait for slot %d did not signal within %v: %v", slot, fenceTimeout, err))
	}
	sr.phase = slotReady

	imageIndex, err := fs.Device.AcquireImage(slot)
	if errors.Is(err, ErrSurfaceOutOfDate) {
		fs.outOfDate = true
		slog.Debug("rendergraph.Frames acquire out of date", "slot", slot)
		return false, nil
	}
	if err != nil && !errors.Is(err, ErrSurfaceSuboptimal) {
		return false, fmt.Errorf("rendergraph: acquire image: %w", err)
	}

	// No GPU-visible side effects have happened yet; from here on the
	// frame runs to completion.
	if err := fs.Device.ResetFence(slot); err != nil {
		return false, fmt.Errorf("rendergraph: reset fence slot %d: %w", slot, err)
	}
	sr.Staging.Reset()

	if err := fs.record(fc, sr); err != nil {
		return false, err
	}

	if sr.phase != slotRecordingEnded {
		panic(fmt.Sprintf("rendergraph: submit of slot %d in phase %v, must be RecordingEnded", slot, sr.phase))
	}
	if err := fs.Device.Submit(slot); err != nil {
		return false, fmt.Errorf("rendergraph: submit slot %d: %w", slot, err)
	}
	sr.phase = slotSubmitted

	err = fs.Device.Present(slot, imageIndex)
	if errors.Is(err, ErrSurfaceOutOfDate) || errors.Is(err, ErrSurfaceSuboptimal) {
		// GPU work already ran; recreation is deferred to next frame.
		fs.outOfDate = true
		err = nil
	}
	if err != nil {
		return false, fmt.Errorf("rendergraph: present slot %d: %w", slot, err)
	}

	fs.Current = (fs.Current + 1) % len(fs.Slots)
	fs.FrameNumber++
	fs.finishPendingResize()
	return true, nil
}

// record runs step 5 of the protocol: begin the slot's command
// stream, set default dynamic state, execute the graph, end.
func (fs *Frames) record(fc *FrameContext, sr *FrameResources) error {
	if sr.phase != slotReady {
		panic(fmt.Sprintf("rendergraph: record of slot %d in phase %v, must be Ready", sr.Index, sr.phase))
	}
	if err := fs.Device.BeginCommands(sr.Index); err != nil {
		return fmt.Errorf("rendergraph: begin commands slot %d: %w", sr.Index, err)
	}
	sr.phase = slotRecording
	fs.Device.SetDefaultState(sr.Index, fs.size)

	fc.beginFrame(fc.DeltaTime, sr.Index, fs.FrameNumber)
	if err := fs.Graph.ExecuteFrame(fc); err != nil {
		return err
	}

	if err := fs.Device.EndCommands(sr.Index); err != nil {
		return fmt.Errorf("rendergraph: end commands slot %d: %w", sr.Index, err)
	}
	sr.phase = slotRecordingEnded
	return nil
}

// prepareSurface handles pending resize or out-of-date conditions
// before any frame work starts.  ready is false when this frame must
// be skipped.
func (fs *Frames) prepareSurface() (ready bool, err error) {
	if fs.recreating {
		if err := fs.Device.WaitIdle(); err != nil {
			return false, err
		}
		return false, nil
	}
	if !fs.outOfDate && fs.sizeGeneration == fs.lastSizeGeneration {
		return true, nil
	}
	// A minimized / zero-area surface: skip frames without touching
	// the swapchain until the surface regains nonzero size.
	if fs.size.X <= 0 || fs.size.Y <= 0 {
		return false, nil
	}
	fs.recreating = true
	defer func() { fs.recreating = false }()

	if err := fs.Device.WaitIdle(); err != nil {
		return false, err
	}
	rerr := fs.Device.RecreateSwapchain(fs.size)
	if errors.Is(rerr, ErrSurfaceTooSmall) {
		return false, nil
	}
	if rerr != nil {
		return false, fmt.Errorf("rendergraph: recreate swapchain: %w", rerr)
	}
	fs.lastSizeGeneration = fs.sizeGeneration
	fs.outOfDate = false
	fs.pendingResize = true
	fs.skipFrames = 0
	fs.syncSlots()
	fs.Graph.refreshGlobalSources()
	slog.Debug("rendergraph.Frames swapchain recreated", "size", fs.size,
		"generation", fs.sizeGeneration)
	return false, nil
}

// syncSlots re-sizes the per-slot resource sets to the device's
// frame-in-flight count, which can change with swapchain recreation
// (the surface capabilities clamp the image count).  Safe to call
// only when the device is drained.
func (fs *Frames) syncSlots() {
	n := fs.Device.FrameCount()
	if n == len(fs.Slots) {
		return
	}
	slog.Debug("rendergraph.Frames frame count changed", "old", len(fs.Slots), "new", n)
	if n < len(fs.Slots) {
		fs.Slots = fs.Slots[:n]
	} else {
		for i := len(fs.Slots); i < n; i++ {
			fs.Slots = append(fs.Slots, &FrameResources{Index: i, Staging: freelist.New(fs.stagingSize)})
		}
	}
	if fs.Current >= n {
		fs.Current = 0
	}
}

// finishPendingResize resizes size-dependent attachments once the new
// swapchain has cycled through every frame-in-flight slot, draining
// the device first so no in-flight command stream can still reference
// the old attachments.
func (fs *Frames) finishPendingResize() {
	if !fs.pendingResize {
		return
	}
	fs.skipFrames++
	if fs.skipFrames < len(fs.Slots) {
		return
	}
	// the last N frames recorded against the old attachments may
	// still be executing; drain before the device frees them
	if err := fs.Device.WaitIdle(); err != nil {
		slog.Error("rendergraph.Frames attachment resize wait idle", "err", err)
		return
	}
	if err := fs.Device.ResizeAttachments(fs.size); err != nil {
		slog.Error("rendergraph.Frames attachment resize", "err", err)
		return
	}
	fs.pendingResize = false
	fs.Graph.refreshGlobalSources()
}

// Destroy drains the device and tears down the graph.  The Device
// itself is destroyed by its backend owner afterwards.
func (fs *Frames) Destroy() {
	if fs.Device != nil {
		if err := fs.Device.WaitIdle(); err != nil {
			slog.Error("rendergraph.Frames destroy wait idle", "err", err)
		}
	}
	if fs.Graph != nil {
		fs.Graph.Destroy()
	}
	fs.Slots = nil
}
