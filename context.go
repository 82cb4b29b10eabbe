// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

// Scratch is a bump allocator over a fixed byte buffer, reset
// wholesale at the start of every frame.  It backs transient per-frame
// arrays so the hot recording path does not heap-allocate.  Nothing
// allocated from it survives the frame.
type Scratch struct {
	buf []byte
	off int
}

// Init sizes the scratch buffer.  Existing contents are lost.
func (sc *Scratch) Init(size int) {
	sc.buf = make([]byte, size)
	sc.off = 0
}

// Alloc returns a zeroed byte slice of the given size, aligned to
// align bytes (align must be a power of two; 0 means 1).
// Returns nil if the buffer is exhausted; callers needing a hard
// failure should treat nil as out-of-space.
func (sc *Scratch) Alloc(size, align int) []byte {
	if align > 1 {
		sc.off = (sc.off + align - 1) &^ (align - 1)
	}
	if sc.off+size > len(sc.buf) {
		return nil
	}
	b := sc.buf[sc.off : sc.off+size : sc.off+size]
	for i := range b {
		b[i] = 0
	}
	sc.off += size
	return b
}

// Reset discards all allocations, returning the full buffer.
func (sc *Scratch) Reset() {
	sc.off = 0
}

// Used returns the number of bytes currently allocated.
func (sc *Scratch) Used() int { return sc.off }

// FrameContext carries the frame-scoped state passed through
// [Graph.ExecuteFrame] to every pass.  It is owned by the host
// application; [Frames.RenderFrame] fills in the per-frame fields and
// resets the scratch arena at the start of each frame.
type FrameContext struct {
	// DeltaTime is the elapsed time since the previous frame,
	// in seconds.
	DeltaTime float64

	// TotalTime is the total elapsed time, in seconds.
	TotalTime float64

	// FrameIndex is the current frame-in-flight slot, 0..N-1.
	FrameIndex int

	// FrameNumber is the monotonically increasing frame counter,
	// advanced after every successful present.  Binding caches use it
	// to bound GPU-side writes to once per slot per frame.
	FrameNumber uint64

	// ObjectsDrawn counts objects drawn this frame; passes increment
	// it as they record.
	ObjectsDrawn int

	// Scratch is the per-frame bump allocator.
	Scratch Scratch
}

// NewFrameContext returns a FrameContext with a scratch arena of the
// given byte size.
func NewFrameContext(scratchSize int) *FrameContext {
	fc := &FrameContext{}
	fc.Scratch.Init(scratchSize)
	return fc
}

// beginFrame resets per-frame state at the start of a frame.
func (fc *FrameContext) beginFrame(delta float64, slot int, frame uint64) {
	fc.DeltaTime = delta
	fc.TotalTime += delta
	fc.FrameIndex = slot
	fc.FrameNumber = frame
	fc.ObjectsDrawn = 0
	fc.Scratch.Reset()
}
