// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdevice

import (
	vk "github.com/goki/vulkan"
)

// renderTarget is the default onscreen target: a single-subpass
// renderpass over the swapchain color image and the shared depth
// attachment, with one framebuffer per swapchain image.
type renderTarget struct {
	Pass         vk.RenderPass
	Framebuffers []vk.Framebuffer
}

func (rt *renderTarget) config(d *Device) error {
	color := vk.AttachmentDescription{
		Format:         d.sc.Format.Format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}
	depth := vk.AttachmentDescription{
		Format:         d.depth.Format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	colorRef := vk.AttachmentReference{
		Attachment: 0, Layout: vk.ImageLayoutColorAttachmentOptimal,
	}
	depthRef := vk.AttachmentReference{
		Attachment: 1, Layout: vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       []vk.AttachmentReference{colorRef},
		PDepthStencilAttachment: &depthRef,
	}
	// external dependency so the clear waits for the acquired image
	dep := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
	}
	var pass vk.RenderPass
	ret := vk.CreateRenderPass(d.dev.Device, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 2,
		PAttachments:    []vk.AttachmentDescription{color, depth},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dep},
	}, nil, &pass)
	if err := errVk(ret); err != nil {
		return err
	}
	rt.Pass = pass
	return rt.configFramebuffers(d)
}

// configFramebuffers recreates per-image framebuffers; called after
// swapchain or depth attachment recreation.
func (rt *renderTarget) configFramebuffers(d *Device) error {
	rt.freeFramebuffers(d.dev.Device)
	sz := d.sc.size()
	rt.Framebuffers = make([]vk.Framebuffer, len(d.sc.Views))
	for i, view := range d.sc.Views {
		var fb vk.Framebuffer
		ret := vk.CreateFramebuffer(d.dev.Device, &vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      rt.Pass,
			AttachmentCount: 2,
			PAttachments:    []vk.ImageView{view, d.depth.View},
			Width:           uint32(sz.X),
			Height:          uint32(sz.Y),
			Layers:          1,
		}, nil, &fb)
		if err := errVk(ret); err != nil {
			return err
		}
		rt.Framebuffers[i] = fb
	}
	return nil
}

func (rt *renderTarget) freeFramebuffers(dev vk.Device) {
	for _, fb := range rt.Framebuffers {
		vk.DestroyFramebuffer(dev, fb, nil)
	}
	rt.Framebuffers = nil
}

func (rt *renderTarget) destroy(dev vk.Device) {
	rt.freeFramebuffers(dev)
	if rt.Pass != vk.NullRenderPass {
		vk.DestroyRenderPass(dev, rt.Pass, nil)
		rt.Pass = vk.NullRenderPass
	}
}

// RenderPass returns the default onscreen renderpass handle, for
// pipeline construction.
func (d *Device) RenderPass() vk.RenderPass { return d.target.Pass }

// BeginRenderPass starts the default renderpass on the slot's command
// buffer, targeting the framebuffer for the image acquired this frame
// and clearing color and depth/stencil to the given values.
func (d *Device) BeginRenderPass(slot int, color [4]float32, depth float32, stencil uint32) {
	cb := d.cmd.Buffs[slot]
	sz := d.sc.size()
	vk.CmdBeginRenderPass(cb, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  d.target.Pass,
		Framebuffer: d.target.Framebuffers[d.acquired[slot]],
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{Width: uint32(sz.X), Height: uint32(sz.Y)},
		},
		ClearValueCount: 2,
		PClearValues: []vk.ClearValue{
			vk.NewClearValue(color[:]),
			vk.NewClearDepthStencil(depth, stencil),
		},
	}, vk.SubpassContentsInline)
}

// EndRenderPass ends the default renderpass on the slot's command
// buffer.
func (d *Device) EndRenderPass(slot int) {
	vk.CmdEndRenderPass(d.cmd.Buffs[slot])
}
