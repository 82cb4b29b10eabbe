// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdevice

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"cogentcore.org/rendergraph"
)

// MaxBindGroupSize is the largest uniform range one binding group may
// occupy.  Descriptor sets are written once with this range and
// rebased per group with a dynamic offset.
const MaxBindGroupSize = 256

// Bindings realizes a [rendergraph.BindPool] on Vulkan: one
// persistently-mapped uniform buffer per frame-in-flight slot region,
// a dynamic-uniform descriptor set per slot, and group selection via
// dynamic offsets.  A group's bytes are written only when the pool's
// cache reports UpdateNeeded for the (group, slot, frame) triple.
type Bindings struct {
	Layout         vk.DescriptorSetLayout
	PipelineLayout vk.PipelineLayout
	DescPool       vk.DescriptorPool

	// Sets has one descriptor set per frame-in-flight slot, each
	// pointing at that slot's region of the uniform buffer.
	Sets []vk.DescriptorSet

	// Uniforms backs all groups for all slots: frames regions of
	// slotStride bytes each.
	Uniforms hostBuffer

	slotStride int
	pool       *rendergraph.BindPool
}

// memSizeAlign rounds size up to a multiple of align.
func memSizeAlign(size, align int) int {
	if align <= 1 {
		return size
	}
	return (size + align - 1) / align * align
}

// Config builds the Vulkan state backing the given pool.  The uniform
// buffer holds one pool-sized region per frame-in-flight slot, so
// in-flight frames never overwrite each other's group data.  Config
// sets the pool's offset alignment to the device's dynamic-offset
// minimum; call it before carving any groups.
func (bd *Bindings) Config(d *Device, pool *rendergraph.BindPool) error {
	dev := d.dev.Device
	bd.pool = pool
	align := d.MinUniformOffsetAlign()
	pool.SetAlign(align)
	bd.slotStride = memSizeAlign(pool.Total(), align)

	err := bd.Uniforms.config(d.GPU, dev, bd.slotStride*d.frames,
		vk.BufferUsageUniformBufferBit)
	if err != nil {
		return err
	}

	var layout vk.DescriptorSetLayout
	ret := vk.CreateDescriptorSetLayout(dev, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings: []vk.DescriptorSetLayoutBinding{{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeUniformBufferDynamic,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit),
		}},
	}, nil, &layout)
	if err := errVk(ret); err != nil {
		return err
	}
	bd.Layout = layout

	var plLayout vk.PipelineLayout
	ret = vk.CreatePipelineLayout(dev, &vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{layout},
	}, nil, &plLayout)
	if err := errVk(ret); err != nil {
		return err
	}
	bd.PipelineLayout = plLayout

	var dpool vk.DescriptorPool
	ret = vk.CreateDescriptorPool(dev, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(d.frames),
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeUniformBufferDynamic,
			DescriptorCount: uint32(d.frames),
		}},
	}, nil, &dpool)
	if err := errVk(ret); err != nil {
		return err
	}
	bd.DescPool = dpool

	bd.Sets = make([]vk.DescriptorSet, d.frames)
	for i := range bd.Sets {
		var dset vk.DescriptorSet
		ret = vk.AllocateDescriptorSets(dev, &vk.DescriptorSetAllocateInfo{
			SType:              vk.StructureTypeDescriptorSetAllocateInfo,
			DescriptorPool:     dpool,
			DescriptorSetCount: 1,
			PSetLayouts:        []vk.DescriptorSetLayout{layout},
		}, &dset)
		if err := errVk(ret); err != nil {
			return err
		}
		bd.Sets[i] = dset
	}

	writes := make([]vk.WriteDescriptorSet, d.frames)
	for i := range writes {
		writes[i] = vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          bd.Sets[i],
			DstBinding:      0,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBufferDynamic,
			PBufferInfo: []vk.DescriptorBufferInfo{{
				Buffer: bd.Uniforms.Buffer,
				Offset: vk.DeviceSize(i * bd.slotStride),
				Range:  vk.DeviceSize(MaxBindGroupSize),
			}},
		}
	}
	vk.UpdateDescriptorSets(dev, uint32(len(writes)), writes, 0, nil)
	return nil
}

// AllocGroup carves a binding group from the backing pool, rejecting
// sizes larger than the descriptor range [MaxBindGroupSize].  The
// pool rounds the size up to the device's dynamic-offset alignment.
func (bd *Bindings) AllocGroup(name string, size int) (*rendergraph.BindGroup, error) {
	if size > MaxBindGroupSize {
		return nil, fmt.Errorf("vkdevice: group %q: size %d exceeds MaxBindGroupSize %d", name, size, MaxBindGroupSize)
	}
	return bd.pool.AllocGroup(name, size)
}

// WriteGroup writes a group's uniform bytes for the given slot.  Call
// only when the group's BindOrUpdate reported UpdateNeeded.
func (bd *Bindings) WriteGroup(slot int, bg *rendergraph.BindGroup, data []byte) error {
	if len(data) > bg.Size {
		return fmt.Errorf("vkdevice: group %q: %d bytes exceeds group size %d", bg.Name, len(data), bg.Size)
	}
	bd.Uniforms.write(slot*bd.slotStride+bg.Offset, data)
	return nil
}

// BindGroup makes the group's data current on the command buffer via
// the slot's descriptor set and the group's dynamic offset.
func (bd *Bindings) BindGroup(cmd vk.CommandBuffer, slot int, bg *rendergraph.BindGroup) {
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics,
		bd.PipelineLayout, 0, 1, []vk.DescriptorSet{bd.Sets[slot]},
		1, []uint32{uint32(bg.Offset)})
}

func (bd *Bindings) Destroy(dev vk.Device) {
	if bd.DescPool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(dev, bd.DescPool, nil)
		bd.DescPool = vk.NullDescriptorPool
	}
	if bd.PipelineLayout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(dev, bd.PipelineLayout, nil)
		bd.PipelineLayout = vk.NullPipelineLayout
	}
	if bd.Layout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(dev, bd.Layout, nil)
		bd.Layout = vk.NullDescriptorSetLayout
	}
	bd.Uniforms.free(dev)
	bd.Sets = nil
}
