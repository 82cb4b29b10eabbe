// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdevice

import (
	vk "github.com/goki/vulkan"
)

// cmdPool is a resettable command pool with one primary command
// buffer per frame-in-flight slot.
type cmdPool struct {
	Pool  vk.CommandPool
	Buffs []vk.CommandBuffer
}

// config creates the pool for the given queue family and allocates
// nframes primary command buffers.
func (cp *cmdPool) config(dev vk.Device, queueIndex uint32, nframes int) error {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(dev, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: queueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &pool)
	if err := errVk(ret); err != nil {
		return err
	}
	cp.Pool = pool
	return cp.allocBuffs(dev, nframes)
}

// allocBuffs (re)allocates the per-slot command buffers.
func (cp *cmdPool) allocBuffs(dev vk.Device, nframes int) error {
	if len(cp.Buffs) > 0 {
		vk.FreeCommandBuffers(dev, cp.Pool, uint32(len(cp.Buffs)), cp.Buffs)
	}
	cp.Buffs = make([]vk.CommandBuffer, nframes)
	ret := vk.AllocateCommandBuffers(dev, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        cp.Pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(nframes),
	}, cp.Buffs)
	return errVk(ret)
}

func (cp *cmdPool) destroy(dev vk.Device) {
	if cp.Pool == vk.NullCommandPool {
		return
	}
	if len(cp.Buffs) > 0 {
		vk.FreeCommandBuffers(dev, cp.Pool, uint32(len(cp.Buffs)), cp.Buffs)
		cp.Buffs = nil
	}
	vk.DestroyCommandPool(dev, cp.Pool, nil)
	cp.Pool = vk.NullCommandPool
}

// frameSync holds the per-slot synchronization primitives: the
// image-available and work-complete semaphores and the completion
// fence (created signaled, so the first wait passes).
type frameSync struct {
	ImageAvailable []vk.Semaphore
	WorkComplete   []vk.Semaphore
	Fences         []vk.Fence
}

func (fsy *frameSync) config(dev vk.Device, nframes int) error {
	fsy.ImageAvailable = make([]vk.Semaphore, nframes)
	fsy.WorkComplete = make([]vk.Semaphore, nframes)
	fsy.Fences = make([]vk.Fence, nframes)
	for i := 0; i < nframes; i++ {
		semInfo := &vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
		ret := vk.CreateSemaphore(dev, semInfo, nil, &fsy.ImageAvailable[i])
		if err := errVk(ret); err != nil {
			return err
		}
		ret = vk.CreateSemaphore(dev, semInfo, nil, &fsy.WorkComplete[i])
		if err := errVk(ret); err != nil {
			return err
		}
		ret = vk.CreateFence(dev, &vk.FenceCreateInfo{
			SType: vk.StructureTypeFenceCreateInfo,
			Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
		}, nil, &fsy.Fences[i])
		if err := errVk(ret); err != nil {
			return err
		}
	}
	return nil
}

func (fsy *frameSync) destroy(dev vk.Device) {
	for i := range fsy.Fences {
		vk.DestroySemaphore(dev, fsy.ImageAvailable[i], nil)
		vk.DestroySemaphore(dev, fsy.WorkComplete[i], nil)
		vk.DestroyFence(dev, fsy.Fences[i], nil)
	}
	fsy.ImageAvailable = nil
	fsy.WorkComplete = nil
	fsy.Fences = nil
}
