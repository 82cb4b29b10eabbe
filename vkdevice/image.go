// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdevice

import (
	"image"

	vk "github.com/goki/vulkan"
)

// depthImage is the shared depth/stencil attachment, sized to the
// swapchain and recreated on (debounced) attachment resize.
type depthImage struct {
	Image  vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Format vk.Format
	Size   image.Point
}

// config (re)creates the depth image for the given size, freeing any
// existing one.  The device must not have the old image in flight.
func (di *depthImage) config(gp *GPU, dev vk.Device, size image.Point) error {
	di.free(dev)
	di.Format = depthFormat(gp)
	di.Size = size

	var img vk.Image
	ret := vk.CreateImage(dev, &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    di.Format,
		Extent: vk.Extent3D{
			Width:  uint32(size.X),
			Height: uint32(size.Y),
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &img)
	if err := errVk(ret); err != nil {
		return err
	}
	di.Image = img

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dev, di.Image, &memReqs)
	memReqs.Deref()
	memType, err := gp.FindMemoryType(memReqs.MemoryTypeBits, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		return err
	}
	var mem vk.DeviceMemory
	ret = vk.AllocateMemory(dev, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memType,
	}, nil, &mem)
	if err := errVk(ret); err != nil {
		return err
	}
	di.Memory = mem
	vk.BindImageMemory(dev, di.Image, di.Memory, 0)

	var view vk.ImageView
	ret = vk.CreateImageView(dev, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    di.Image,
		ViewType: vk.ImageViewType2d,
		Format:   di.Format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectDepthBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &view)
	if err := errVk(ret); err != nil {
		return err
	}
	di.View = view
	return nil
}

func (di *depthImage) free(dev vk.Device) {
	if di.View != vk.NullImageView {
		vk.DestroyImageView(dev, di.View, nil)
		di.View = vk.NullImageView
	}
	if di.Image != vk.NullImage {
		vk.DestroyImage(dev, di.Image, nil)
		di.Image = vk.NullImage
	}
	if di.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(dev, di.Memory, nil)
		di.Memory = vk.NullDeviceMemory
	}
}

// depthFormat selects a supported depth/stencil format, preferring
// 32-bit float depth with stencil.
func depthFormat(gp *GPU) vk.Format {
	candidates := []vk.Format{
		vk.FormatD32SfloatS8Uint,
		vk.FormatD24UnormS8Uint,
		vk.FormatD32Sfloat,
	}
	for _, f := range candidates {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(gp.GPU, f, &props)
		props.Deref()
		if props.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit) != 0 {
			return f
		}
	}
	return vk.FormatD32Sfloat
}
