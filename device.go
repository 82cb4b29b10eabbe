// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"image"
	"time"
)

// TextureRef is a lightweight reference to a backend texture, carrying
// the generation counter the backend bumps whenever the underlying
// image is recreated (resize, mip regeneration).  Binding caches
// compare generations to detect stale sampler / view references.
type TextureRef struct {
	// ID is the backend's identifier for the texture.  0 is invalid.
	ID uint64

	// Generation of the texture contents this reference was taken at.
	Generation uint32
}

// IsValid reports whether the reference points at a texture.
func (tr TextureRef) IsValid() bool {
	return tr.ID != 0
}

// Device is the abstraction boundary to the concrete GPU API.
// The frame orchestrator owns a Device and drives it through the
// per-frame protocol; passes borrow it (typically type-asserting to
// the concrete backend, e.g. *vkdevice.Device) to record draws.
//
// All methods return success or failure; none panic for runtime
// conditions.  The transient surface conditions ErrSurfaceOutOfDate,
// ErrSurfaceSuboptimal, and ErrSurfaceTooSmall are reported through
// normal error returns and handled by [Frames], never surfaced to the
// application as failures.
//
// Slot arguments index frame-in-flight resources, 0..FrameCount()-1.
type Device interface {
	// FrameCount returns the number of frame-in-flight slots,
	// which equals the swapchain image count (typically 2-3).
	// Surface capabilities can clamp the count to a new value
	// during RecreateSwapchain; callers re-query it afterwards.
	FrameCount() int

	// SurfaceSize returns the current swapchain extent.
	SurfaceSize() image.Point

	// RecreateSwapchain replaces the swapchain images for a new
	// surface size.  A zero-area size returns ErrSurfaceTooSmall and
	// leaves the existing swapchain untouched.  The caller must have
	// drained the device (WaitIdle) first.
	RecreateSwapchain(size image.Point) error

	// ResizeAttachments recreates size-dependent non-swapchain
	// attachments (the depth buffer).  The old attachments are
	// freed: the implementation drains any remaining in-flight work
	// referencing them before replacing them.
	ResizeAttachments(size image.Point) error

	// SwapchainTextures returns one texture reference per swapchain
	// image, refreshed after RecreateSwapchain.
	SwapchainTextures() []TextureRef

	// DepthTexture returns the shared depth/stencil attachment.
	DepthTexture() TextureRef

	// WaitIdle blocks until all queued GPU work has completed.
	WaitIdle() error

	// WaitFence blocks until the slot's completion fence signals,
	// guaranteeing the GPU is done consuming that slot's resources.
	// Exceeding the timeout is a contract violation (the GPU is
	// wedged); the caller treats it as fatal.
	WaitFence(slot int, timeout time.Duration) error

	// ResetFence returns the slot's fence to unsignaled, ready to be
	// signaled by the next Submit.
	ResetFence(slot int) error

	// AcquireImage requests the next presentable image index,
	// signaling the slot's image-available semaphore on completion.
	// Returns ErrSurfaceOutOfDate if the swapchain must be recreated
	// before any image can be acquired.
	AcquireImage(slot int) (imageIndex int, err error)

	// BeginCommands resets and begins the slot's command stream.
	// Only valid once WaitFence for the slot has returned.
	BeginCommands(slot int) error

	// SetDefaultState records default dynamic pipeline state into the
	// slot's command stream: full viewport and scissor for the given
	// size, counter-clockwise front face, depth test enabled, and
	// default stencil masks.
	SetDefaultState(slot int, size image.Point)

	// EndCommands finishes recording the slot's command stream.
	EndCommands(slot int) error

	// Submit enqueues the slot's command stream on the graphics
	// queue: waiting on the image-available semaphore gated at the
	// color-attachment-output stage, signaling the work-complete
	// semaphore, and signaling the slot's completion fence.
	Submit(slot int) error

	// Present queues presentation of the acquired image, waiting on
	// the slot's work-complete semaphore.  Returns
	// ErrSurfaceOutOfDate or ErrSurfaceSuboptimal when the swapchain
	// should be recreated; both are deferred to the next frame since
	// this frame's GPU work has already run.
	Present(slot int, imageIndex int) error
}
