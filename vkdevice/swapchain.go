// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdevice

import (
	"errors"
	"image"

	vk "github.com/goki/vulkan"
)

// swapchain manages the presentable images for a window surface.
type swapchain struct {
	Swapchain vk.Swapchain
	Format    vk.SurfaceFormat
	Extent    vk.Extent2D
	Images    []vk.Image
	Views     []vk.ImageView
}

// config creates (or recreates, retiring the old handle) the
// swapchain for the given surface and requested size and image count.
// The actual image count and extent come from surface capabilities.
func (sc *swapchain) config(gp *GPU, dev vk.Device, surface vk.Surface, size image.Point, nframes int) error {
	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(gp.GPU, surface, &caps)
	if err := errVk(ret); err != nil {
		return err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(gp.GPU, surface, &formatCount, nil)
	if formatCount == 0 {
		return errors.New("vkdevice: surface has no pixel formats")
	}
	formats := make([]vk.SurfaceFormat, formatCount)
	vk.GetPhysicalDeviceSurfaceFormats(gp.GPU, surface, &formatCount, formats)
	format := formats[0]
	format.Deref()
	if format.Format == vk.FormatUndefined {
		format.Format = vk.FormatB8g8r8a8Srgb
	}

	extent := caps.CurrentExtent
	if extent.Width == vk.MaxUint32 { // surface size is up to us
		extent = vk.Extent2D{Width: uint32(size.X), Height: uint32(size.Y)}
	}
	if extent.Width == 0 || extent.Height == 0 {
		return errors.New("vkdevice: zero-area surface extent")
	}

	desired := uint32(nframes)
	if desired < caps.MinImageCount {
		desired = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && desired > caps.MaxImageCount {
		desired = caps.MaxImageCount
	}

	preTransform := caps.CurrentTransform
	if vk.SurfaceTransformFlags(vk.SurfaceTransformIdentityBit)&caps.SupportedTransforms != 0 {
		preTransform = vk.SurfaceTransformIdentityBit
	}

	compositeAlpha := vk.CompositeAlphaOpaqueBit
	for _, ca := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(ca) != 0 {
			compositeAlpha = ca
			break
		}
	}

	oldSwapchain := sc.Swapchain
	var newChain vk.Swapchain
	ret = vk.CreateSwapchain(dev, &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    desired,
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     preTransform,
		CompositeAlpha:   compositeAlpha,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		// FIFO is always available and has no tearing.
		PresentMode:  vk.PresentModeFifo,
		OldSwapchain: oldSwapchain,
		Clipped:      vk.True,
	}, nil, &newChain)
	if err := errVk(ret); err != nil {
		return err
	}
	sc.freeViews(dev)
	if oldSwapchain != vk.NullSwapchain {
		vk.DestroySwapchain(dev, oldSwapchain, nil)
	}
	sc.Swapchain = newChain
	sc.Format = format
	sc.Extent = extent

	var imageCount uint32
	ret = vk.GetSwapchainImages(dev, sc.Swapchain, &imageCount, nil)
	if err := errVk(ret); err != nil {
		return err
	}
	sc.Images = make([]vk.Image, imageCount)
	vk.GetSwapchainImages(dev, sc.Swapchain, &imageCount, sc.Images)

	sc.Views = make([]vk.ImageView, imageCount)
	for i, img := range sc.Images {
		var view vk.ImageView
		ret = vk.CreateImageView(dev, &vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    img,
			ViewType: vk.ImageViewType2d,
			Format:   format.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}, nil, &view)
		if err := errVk(ret); err != nil {
			return err
		}
		sc.Views[i] = view
	}
	return nil
}

// size returns the current extent as an image.Point.
func (sc *swapchain) size() image.Point {
	return image.Point{int(sc.Extent.Width), int(sc.Extent.Height)}
}

func (sc *swapchain) freeViews(dev vk.Device) {
	for _, v := range sc.Views {
		vk.DestroyImageView(dev, v, nil)
	}
	sc.Views = nil
	sc.Images = nil
}

// free destroys the swapchain and its views.  The device must be idle.
func (sc *swapchain) free(dev vk.Device) {
	sc.freeViews(dev)
	if sc.Swapchain != vk.NullSwapchain {
		vk.DestroySwapchain(dev, sc.Swapchain, nil)
		sc.Swapchain = vk.NullSwapchain
	}
}
