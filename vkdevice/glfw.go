// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build (darwin && !ios) || windows || (linux && !android) || dragonfly || openbsd

package vkdevice

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
)

// note: this file contains the glfw dependencies, for desktop platform
// builds.  Other platforms need to provide their own Init and
// Terminate.

// Init initializes the Vulkan system for display use, using glfw.
// Must be called before any other vkdevice use, on the main initial
// thread (runtime.LockOSThread).
func Init() error {
	if err := glfw.Init(); err != nil {
		return err
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	return vk.Init()
}

// Terminate shuts down the windowing system; call as the last thing
// before quitting, on the main initial thread.
func Terminate() {
	glfw.Terminate()
}
