// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"fmt"
	"image"
	"time"
)

// fakeDevice is a scripted in-memory Device for exercising the frame
// protocol without a GPU.  It logs every call so tests can assert
// ordering properties, completes "GPU work" instantly (Submit signals
// the slot's fence), and can be scripted to report the transient
// surface conditions.
type fakeDevice struct {
	frames int
	size   image.Point

	events []string

	fenceSignaled []bool
	nextImage     int

	// counters
	recreates  int
	resizes    int
	acquires   int
	submits    int
	presents   int
	waitIdles  int
	generation uint32

	// scripted conditions
	acquireErr     error // returned by next AcquireImage, then cleared
	presentErr     error // returned by next Present, then cleared
	recreateFrames int   // image count after next recreation, 0 = unchanged
}

func newFakeDevice(frames int, size image.Point) *fakeDevice {
	fd := &fakeDevice{frames: frames, size: size, generation: 1}
	fd.fenceSignaled = make([]bool, frames)
	for i := range fd.fenceSignaled {
		fd.fenceSignaled[i] = true // created signaled, like Vulkan
	}
	return fd
}

func (fd *fakeDevice) log(format string, args ...any) {
	fd.events = append(fd.events, fmt.Sprintf(format, args...))
}

func (fd *fakeDevice) FrameCount() int          { return fd.frames }
func (fd *fakeDevice) SurfaceSize() image.Point { return fd.size }

func (fd *fakeDevice) RecreateSwapchain(size image.Point) error {
	if size.X <= 0 || size.Y <= 0 {
		return ErrSurfaceTooSmall
	}
	fd.size = size
	fd.recreates++
	fd.generation++
	if fd.recreateFrames != 0 && fd.recreateFrames != fd.frames {
		// surface capabilities clamped the image count: per-slot
		// resources follow it, fences recreated signaled
		fd.frames = fd.recreateFrames
		fd.fenceSignaled = make([]bool, fd.frames)
		for i := range fd.fenceSignaled {
			fd.fenceSignaled[i] = true
		}
		fd.nextImage = 0
	}
	fd.recreateFrames = 0
	fd.log("recreate %v frames=%d", size, fd.frames)
	return nil
}

func (fd *fakeDevice) ResizeAttachments(size image.Point) error {
	fd.resizes++
	fd.generation++
	fd.log("resize-attachments %v", size)
	return nil
}

func (fd *fakeDevice) SwapchainTextures() []TextureRef {
	trs := make([]TextureRef, fd.frames)
	for i := range trs {
		trs[i] = TextureRef{ID: uint64(100 + i), Generation: fd.generation}
	}
	return trs
}

func (fd *fakeDevice) DepthTexture() TextureRef {
	return TextureRef{ID: 99, Generation: fd.generation}
}

func (fd *fakeDevice) WaitIdle() error {
	fd.waitIdles++
	fd.log("wait-idle")
	return nil
}

func (fd *fakeDevice) WaitFence(slot int, timeout time.Duration) error {
	fd.log("wait-fence %d", slot)
	if !fd.fenceSignaled[slot] {
		return fmt.Errorf("fake: fence %d unsignaled", slot)
	}
	return nil
}

func (fd *fakeDevice) ResetFence(slot int) error {
	fd.log("reset-fence %d", slot)
	fd.fenceSignaled[slot] = false
	return nil
}

func (fd *fakeDevice) AcquireImage(slot int) (int, error) {
	fd.acquires++
	fd.log("acquire %d", slot)
	if fd.acquireErr != nil {
		err := fd.acquireErr
		fd.acquireErr = nil
		return 0, err
	}
	idx := fd.nextImage
	fd.nextImage = (fd.nextImage + 1) % fd.frames
	return idx, nil
}

func (fd *fakeDevice) BeginCommands(slot int) error {
	fd.log("begin %d", slot)
	return nil
}

func (fd *fakeDevice) SetDefaultState(slot int, size image.Point) {
	fd.log("default-state %d %v", slot, size)
}

func (fd *fakeDevice) EndCommands(slot int) error {
	fd.log("end %d", slot)
	return nil
}

func (fd *fakeDevice) Submit(slot int) error {
	fd.submits++
	fd.log("submit %d", slot)
	fd.fenceSignaled[slot] = true // fake GPU completes instantly
	return nil
}

func (fd *fakeDevice) Present(slot, imageIndex int) error {
	fd.presents++
	fd.log("present %d %d", slot, imageIndex)
	if fd.presentErr != nil {
		err := fd.presentErr
		fd.presentErr = nil
		return err
	}
	return nil
}
