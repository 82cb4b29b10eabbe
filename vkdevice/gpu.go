// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdevice

import (
	"errors"
	"fmt"
	"log/slog"

	vk "github.com/goki/vulkan"
)

// Debug enables Vulkan validation layers and verbose logging.
var Debug = false

// errVk converts a non-success vk.Result into an error.
func errVk(ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	return fmt.Errorf("vkdevice: vulkan error: %s (%d)", vk.Error(ret).Error(), ret)
}

// GPU selects and holds the Vulkan instance and physical device.
type GPU struct {
	// Instance is the Vulkan instance handle.
	Instance vk.Instance

	// GPU is the selected physical device.
	GPU vk.PhysicalDevice

	// Properties of the selected physical device.
	Properties vk.PhysicalDeviceProperties

	// MemoryProperties of the selected physical device.
	MemoryProperties vk.PhysicalDeviceMemoryProperties

	// InstanceExts, DeviceExts, and ValidationLayers are the
	// extensions and layers requested at Config time.
	InstanceExts     []string
	DeviceExts       []string
	ValidationLayers []string
}

// NewGPU returns a new GPU; call [GPU.AddInstanceExt] for the
// window-system extensions, then [GPU.Config].
func NewGPU() *GPU {
	return &GPU{}
}

// AddInstanceExt adds required instance extensions (e.g., from
// glfw Window.GetRequiredInstanceExtensions) prior to Config.
func (gp *GPU) AddInstanceExt(exts ...string) {
	gp.InstanceExts = append(gp.InstanceExts, exts...)
}

// Config creates the instance and selects the first physical device
// with a graphics queue.  name is the application name.
func (gp *GPU) Config(name string) error {
	gp.DeviceExts = append(gp.DeviceExts, vk.KhrSwapchainExtensionName)
	if Debug {
		if gp.layerSupported("VK_LAYER_KHRONOS_validation") {
			gp.ValidationLayers = append(gp.ValidationLayers, "VK_LAYER_KHRONOS_validation")
		} else {
			slog.Warn("vkdevice: validation layer not available")
		}
	}

	var inst vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			PApplicationName:   safeString(name),
			ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
			PEngineName:        safeString("rendergraph"),
			EngineVersion:      uint32(vk.MakeVersion(1, 0, 0)),
			ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		},
		EnabledExtensionCount:   uint32(len(gp.InstanceExts)),
		PpEnabledExtensionNames: safeStrings(gp.InstanceExts),
		EnabledLayerCount:       uint32(len(gp.ValidationLayers)),
		PpEnabledLayerNames:     safeStrings(gp.ValidationLayers),
	}, nil, &inst)
	if err := errVk(ret); err != nil {
		return err
	}
	gp.Instance = inst
	vk.InitInstance(inst)

	var gpuCount uint32
	ret = vk.EnumeratePhysicalDevices(gp.Instance, &gpuCount, nil)
	if err := errVk(ret); err != nil {
		return err
	}
	if gpuCount == 0 {
		return errors.New("vkdevice: no GPU devices found")
	}
	gpus := make([]vk.PhysicalDevice, gpuCount)
	vk.EnumeratePhysicalDevices(gp.Instance, &gpuCount, gpus)
	gp.GPU = gpus[0]

	vk.GetPhysicalDeviceProperties(gp.GPU, &gp.Properties)
	gp.Properties.Deref()
	gp.Properties.Limits.Deref()
	vk.GetPhysicalDeviceMemoryProperties(gp.GPU, &gp.MemoryProperties)
	gp.MemoryProperties.Deref()

	if Debug {
		gp.Properties.DeviceName[len(gp.Properties.DeviceName)-1] = 0
		slog.Info("vkdevice: selected GPU", "name",
			vk.ToString(gp.Properties.DeviceName[:]))
	}
	return nil
}

// layerSupported reports whether a named instance layer is available.
func (gp *GPU) layerSupported(name string) bool {
	var count uint32
	if vk.EnumerateInstanceLayerProperties(&count, nil) != vk.Success {
		return false
	}
	layers := make([]vk.LayerProperties, count)
	if vk.EnumerateInstanceLayerProperties(&count, layers) != vk.Success {
		return false
	}
	for i := range layers {
		layers[i].Deref()
		end := 0
		for end < len(layers[i].LayerName) && layers[i].LayerName[end] != 0 {
			end++
		}
		if name == vk.ToString(layers[i].LayerName[:end+1]) {
			return true
		}
	}
	return false
}

// FindMemoryType returns the index of a memory type matching the
// filter and property flags.
func (gp *GPU) FindMemoryType(typeFilter uint32, props vk.MemoryPropertyFlagBits) (uint32, error) {
	required := vk.MemoryPropertyFlags(props)
	for i := uint32(0); i < gp.MemoryProperties.MemoryTypeCount; i++ {
		mt := &gp.MemoryProperties.MemoryTypes[i]
		mt.Deref()
		if typeFilter&(1<<i) != 0 && mt.PropertyFlags&required == required {
			return i, nil
		}
	}
	return 0, errors.New("vkdevice: no suitable memory type")
}

// Destroy destroys the instance.  Call after all devices are destroyed.
func (gp *GPU) Destroy() {
	if gp.Instance != nil {
		vk.DestroyInstance(gp.Instance, nil)
		gp.Instance = nil
	}
}

// safeString returns a null-terminated copy of s as Vulkan requires.
func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\x00' {
		return s + "\x00"
	}
	return s
}

func safeStrings(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = safeString(s)
	}
	return out
}
