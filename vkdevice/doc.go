// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vkdevice implements the rendergraph backend Device interface
// on Vulkan, via github.com/goki/vulkan.  It owns the instance,
// physical and logical device, the swapchain and its per-frame
// synchronization primitives, the shared depth attachment, and the
// per-slot command buffers, plus creation of buffers, images,
// pipelines, and descriptor bindings for pass implementations.
package vkdevice
