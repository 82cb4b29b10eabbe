// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdevice

import (
	"errors"

	vk "github.com/goki/vulkan"
)

// logicalDevice holds the Vulkan logical device and its queue.  Each
// window surface gets its own, configured for a queue family that can
// both render and present to that surface.
type logicalDevice struct {
	Device     vk.Device
	QueueIndex uint32
	Queue      vk.Queue
}

// initForSurface finds a queue family that supports both graphics and
// presentation to the given surface, and creates the logical device.
func (dv *logicalDevice) initForSurface(gp *GPU, surface vk.Surface) error {
	var queueCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gp.GPU, &queueCount, nil)
	queueProperties := make([]vk.QueueFamilyProperties, queueCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(gp.GPU, &queueCount, queueProperties)
	if queueCount == 0 {
		return errors.New("vkdevice: no queue families found on GPU")
	}

	found := false
	for i := uint32(0); i < queueCount; i++ {
		queueProperties[i].Deref()
		if queueProperties[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
			continue
		}
		var supportsPresent vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(gp.GPU, i, surface, &supportsPresent)
		if supportsPresent.B() {
			dv.QueueIndex = i
			found = true
			break
		}
	}
	if !found {
		return errors.New("vkdevice: no queue family with graphics and present support")
	}
	return dv.makeDevice(gp)
}

// makeDevice creates the logical device and queue for QueueIndex.
func (dv *logicalDevice) makeDevice(gp *GPU) error {
	var device vk.Device
	ret := vk.CreateDevice(gp.GPU, &vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos: []vk.DeviceQueueCreateInfo{{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: dv.QueueIndex,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}},
		EnabledExtensionCount:   uint32(len(gp.DeviceExts)),
		PpEnabledExtensionNames: safeStrings(gp.DeviceExts),
		EnabledLayerCount:       uint32(len(gp.ValidationLayers)),
		PpEnabledLayerNames:     safeStrings(gp.ValidationLayers),
	}, nil, &device)
	if err := errVk(ret); err != nil {
		return err
	}
	dv.Device = device

	var queue vk.Queue
	vk.GetDeviceQueue(dv.Device, dv.QueueIndex, 0, &queue)
	dv.Queue = queue
	return nil
}

func (dv *logicalDevice) destroy() {
	if dv.Device == nil {
		return
	}
	vk.DeviceWaitIdle(dv.Device)
	vk.DestroyDevice(dv.Device, nil)
	dv.Device = nil
}
