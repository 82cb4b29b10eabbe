// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdevice

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	vk "github.com/goki/vulkan"

	"cogentcore.org/rendergraph"
)

// Device implements [rendergraph.Device] on Vulkan for one window
// surface.  It owns the logical device, swapchain, depth attachment,
// per-slot command buffers and synchronization primitives, and the
// default render target passes record into.
type Device struct {
	// GPU is the instance / physical device, shared across windows.
	GPU *GPU

	// Surface is the Vulkan window surface handle.
	Surface vk.Surface

	dev   logicalDevice
	sc    swapchain
	depth depthImage
	cmd   cmdPool
	sync  frameSync

	// target is the default render target: a renderpass over the
	// swapchain color + shared depth, with one framebuffer per image.
	target renderTarget

	// frames is the frame-in-flight count == swapchain image count.
	frames int

	// acquired maps slot → acquired image index for the frame.
	acquired []int

	// texture registry: stable per-image IDs with generations bumped
	// on recreation, so binding caches detect staleness.
	scTexIDs   []uint64
	depthTexID uint64
	scGen      uint32
	depthGen   uint32
	nextTexID  uint64
}

var _ rendergraph.Device = (*Device)(nil)

// New creates a Device for the given surface (e.g., from glfw
// Window.CreateWindowSurface).  size is the window's current
// framebuffer size, used when the surface leaves the extent to the
// application; nframes is the requested frames in flight, with the
// actual count coming from the swapchain.
func New(gp *GPU, surface vk.Surface, size image.Point, nframes int) (*Device, error) {
	d := &Device{GPU: gp, Surface: surface, scGen: 1, depthGen: 1, nextTexID: 1}
	if err := d.dev.initForSurface(gp, surface); err != nil {
		return nil, err
	}
	if err := d.sc.config(gp, d.dev.Device, surface, size, nframes); err != nil {
		return nil, err
	}
	d.frames = len(d.sc.Images)
	d.acquired = make([]int, d.frames)
	d.registerSwapchainTextures()

	if err := d.depth.config(gp, d.dev.Device, d.sc.size()); err != nil {
		return nil, err
	}
	d.depthTexID = d.nextTexID
	d.nextTexID++

	if err := d.cmd.config(d.dev.Device, d.dev.QueueIndex, d.frames); err != nil {
		return nil, err
	}
	if err := d.sync.config(d.dev.Device, d.frames); err != nil {
		return nil, err
	}
	if err := d.target.config(d); err != nil {
		return nil, err
	}
	slog.Debug("vkdevice: device configured", "frames", d.frames,
		"size", d.sc.size())
	return d, nil
}

// registerSwapchainTextures assigns stable IDs to the swapchain
// images on first creation; recreation keeps IDs and bumps scGen.
func (d *Device) registerSwapchainTextures() {
	for len(d.scTexIDs) < len(d.sc.Images) {
		d.scTexIDs = append(d.scTexIDs, d.nextTexID)
		d.nextTexID++
	}
}

// Vk returns the Vulkan logical device handle, for pass
// implementations creating their own resources.
func (d *Device) Vk() vk.Device { return d.dev.Device }

// Queue returns the graphics/present queue.
func (d *Device) Queue() vk.Queue { return d.dev.Queue }

// CommandBuffer returns the primary command buffer for a slot, for
// passes recording draws during execute.
func (d *Device) CommandBuffer(slot int) vk.CommandBuffer {
	return d.cmd.Buffs[slot]
}

// AcquiredImage returns the image index acquired for the slot this
// frame.
func (d *Device) AcquiredImage(slot int) int { return d.acquired[slot] }

// FrameCount returns the frame-in-flight slot count.
func (d *Device) FrameCount() int { return d.frames }

// MinUniformOffsetAlign returns the device's minimum alignment for
// dynamic uniform buffer offsets.
func (d *Device) MinUniformOffsetAlign() int {
	a := int(d.GPU.Properties.Limits.MinUniformBufferOffsetAlignment)
	if a < 1 {
		a = 1
	}
	return a
}

// SurfaceSize returns the current swapchain extent.
func (d *Device) SurfaceSize() image.Point { return d.sc.size() }

// RecreateSwapchain rebuilds the swapchain for a new surface size.
// The caller (the frame orchestrator) has already drained the device.
func (d *Device) RecreateSwapchain(size image.Point) error {
	if size.X <= 0 || size.Y <= 0 {
		return rendergraph.ErrSurfaceTooSmall
	}
	if err := d.sc.config(d.GPU, d.dev.Device, d.Surface, size, d.frames); err != nil {
		return err
	}
	if n := len(d.sc.Images); n != d.frames {
		// image count changed: per-slot resources follow it
		d.frames = n
		d.acquired = make([]int, n)
		d.sync.destroy(d.dev.Device)
		if err := d.sync.config(d.dev.Device, n); err != nil {
			return err
		}
		if err := d.cmd.allocBuffs(d.dev.Device, n); err != nil {
			return err
		}
	}
	d.registerSwapchainTextures()
	d.scGen++
	return d.target.configFramebuffers(d)
}

// ResizeAttachments recreates the depth attachment (and the default
// target's framebuffers) for the new size.  The old depth image is
// freed, so any in-flight frames still referencing it must drain
// first.
func (d *Device) ResizeAttachments(size image.Point) error {
	if err := errVk(vk.DeviceWaitIdle(d.dev.Device)); err != nil {
		return err
	}
	if err := d.depth.config(d.GPU, d.dev.Device, size); err != nil {
		return err
	}
	d.depthGen++
	return d.target.configFramebuffers(d)
}

// SwapchainTextures returns per-image texture references at the
// current swapchain generation.
func (d *Device) SwapchainTextures() []rendergraph.TextureRef {
	trs := make([]rendergraph.TextureRef, len(d.sc.Images))
	for i := range trs {
		trs[i] = rendergraph.TextureRef{ID: d.scTexIDs[i], Generation: d.scGen}
	}
	return trs
}

// DepthTexture returns the shared depth attachment reference.
func (d *Device) DepthTexture() rendergraph.TextureRef {
	return rendergraph.TextureRef{ID: d.depthTexID, Generation: d.depthGen}
}

// WaitIdle blocks until all queued GPU work completes.
func (d *Device) WaitIdle() error {
	return errVk(vk.DeviceWaitIdle(d.dev.Device))
}

// WaitFence blocks until the slot's completion fence signals, or the
// timeout elapses (returned as an error; the caller treats it as
// fatal).
func (d *Device) WaitFence(slot int, timeout time.Duration) error {
	ret := vk.WaitForFences(d.dev.Device, 1, []vk.Fence{d.sync.Fences[slot]},
		vk.True, uint64(timeout.Nanoseconds()))
	if ret == vk.Timeout {
		return fmt.Errorf("vkdevice: fence wait for slot %d timed out after %v", slot, timeout)
	}
	return errVk(ret)
}

// ResetFence returns the slot's fence to unsignaled.
func (d *Device) ResetFence(slot int) error {
	return errVk(vk.ResetFences(d.dev.Device, 1, []vk.Fence{d.sync.Fences[slot]}))
}

// AcquireImage acquires the next presentable image, signaling the
// slot's image-available semaphore.
func (d *Device) AcquireImage(slot int) (int, error) {
	var idx uint32
	ret := vk.AcquireNextImage(d.dev.Device, d.sc.Swapchain, vk.MaxUint64,
		d.sync.ImageAvailable[slot], vk.NullFence, &idx)
	switch ret {
	case vk.ErrorOutOfDate:
		return 0, rendergraph.ErrSurfaceOutOfDate
	case vk.Suboptimal:
		d.acquired[slot] = int(idx)
		return int(idx), rendergraph.ErrSurfaceSuboptimal
	case vk.Success:
		d.acquired[slot] = int(idx)
		return int(idx), nil
	}
	return 0, errVk(ret)
}

// BeginCommands resets and begins the slot's command buffer.
func (d *Device) BeginCommands(slot int) error {
	cb := d.cmd.Buffs[slot]
	if err := errVk(vk.ResetCommandBuffer(cb, 0)); err != nil {
		return err
	}
	return errVk(vk.BeginCommandBuffer(cb, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}))
}

// SetDefaultState records the default dynamic state: a full viewport
// and scissor for the given size.  Winding order, depth/stencil test
// toggles, and stencil masks are fixed pipeline state here, set to
// the same defaults by [Pipeline.SetGraphicsDefaults].
func (d *Device) SetDefaultState(slot int, size image.Point) {
	cb := d.cmd.Buffs[slot]
	vk.CmdSetViewport(cb, 0, 1, []vk.Viewport{{
		X: 0, Y: 0,
		Width:    float32(size.X),
		Height:   float32(size.Y),
		MinDepth: 0, MaxDepth: 1,
	}})
	vk.CmdSetScissor(cb, 0, 1, []vk.Rect2D{{
		Offset: vk.Offset2D{},
		Extent: vk.Extent2D{Width: uint32(size.X), Height: uint32(size.Y)},
	}})
}

// EndCommands finishes recording the slot's command buffer.
func (d *Device) EndCommands(slot int) error {
	return errVk(vk.EndCommandBuffer(d.cmd.Buffs[slot]))
}

// Submit enqueues the slot's command buffer: waits image-available at
// the color-attachment-output stage (later stages may start before
// the image is ready, color writes may not), signals work-complete
// and the slot's fence.
func (d *Device) Submit(slot int) error {
	ret := vk.QueueSubmit(d.dev.Queue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{d.sync.ImageAvailable[slot]},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{d.cmd.Buffs[slot]},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{d.sync.WorkComplete[slot]},
	}}, d.sync.Fences[slot])
	return errVk(ret)
}

// Present queues presentation of the acquired image, waiting on the
// slot's work-complete semaphore.
func (d *Device) Present(slot, imageIndex int) error {
	ret := vk.QueuePresent(d.dev.Queue, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{d.sync.WorkComplete[slot]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{d.sc.Swapchain},
		PImageIndices:      []uint32{uint32(imageIndex)},
	})
	switch ret {
	case vk.ErrorOutOfDate:
		return rendergraph.ErrSurfaceOutOfDate
	case vk.Suboptimal:
		return rendergraph.ErrSurfaceSuboptimal
	}
	return errVk(ret)
}

// Destroy tears down all device resources.  Call after the frame
// orchestrator has drained and destroyed the graph.
func (d *Device) Destroy() {
	if d.dev.Device == nil {
		return
	}
	vk.DeviceWaitIdle(d.dev.Device)
	d.target.destroy(d.dev.Device)
	d.sync.destroy(d.dev.Device)
	d.cmd.destroy(d.dev.Device)
	d.depth.free(d.dev.Device)
	d.sc.free(d.dev.Device)
	d.dev.destroy()
	if d.Surface != vk.NullSurface {
		vk.DestroySurface(d.GPU.Instance, d.Surface, nil)
		d.Surface = vk.NullSurface
	}
}
