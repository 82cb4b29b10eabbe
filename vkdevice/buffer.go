// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdevice

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

// hostBuffer is a persistently-mapped host-visible buffer, used for
// uniform data and staging uploads.
type hostBuffer struct {
	Buffer vk.Buffer
	Memory vk.DeviceMemory
	Ptr    unsafe.Pointer
	Size   int
}

func (hb *hostBuffer) config(gp *GPU, dev vk.Device, size int, usage vk.BufferUsageFlagBits) error {
	var buffer vk.Buffer
	ret := vk.CreateBuffer(dev, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Usage:       vk.BufferUsageFlags(usage),
		Size:        vk.DeviceSize(size),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer)
	if err := errVk(ret); err != nil {
		return err
	}
	hb.Buffer = buffer
	hb.Size = size

	var memReqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dev, buffer, &memReqs)
	memReqs.Deref()

	memType, err := gp.FindMemoryType(memReqs.MemoryTypeBits,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
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
	hb.Memory = mem
	if err := errVk(vk.BindBufferMemory(dev, buffer, mem, 0)); err != nil {
		return err
	}
	var ptr unsafe.Pointer
	ret = vk.MapMemory(dev, mem, 0, vk.DeviceSize(size), 0, &ptr)
	if err := errVk(ret); err != nil {
		return err
	}
	hb.Ptr = ptr
	return nil
}

// bytes returns the mapped memory as a byte slice.
func (hb *hostBuffer) bytes() []byte {
	return unsafe.Slice((*byte)(hb.Ptr), hb.Size)
}

// write copies data into the buffer at offset.
func (hb *hostBuffer) write(offset int, data []byte) {
	copy(hb.bytes()[offset:], data)
}

func (hb *hostBuffer) free(dev vk.Device) {
	if hb.Buffer == vk.NullBuffer {
		return
	}
	if hb.Ptr != nil {
		vk.UnmapMemory(dev, hb.Memory)
		hb.Ptr = nil
	}
	vk.DestroyBuffer(dev, hb.Buffer, nil)
	vk.FreeMemory(dev, hb.Memory, nil)
	hb.Buffer = vk.NullBuffer
	hb.Memory = vk.NullDeviceMemory
}
