// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"fmt"

	"cogentcore.org/core/base/errors"

	"cogentcore.org/rendergraph/freelist"
)

// BindResults is the outcome of [BindGroup.BindOrUpdate].
type BindResults int32

const (
	// BindOnly means the GPU-side state written earlier this frame is
	// still valid: make it current, do not re-write backing values.
	BindOnly BindResults = iota

	// UpdateNeeded means the caller must re-write every backing value
	// (uniform bytes, sampled-texture references) for this slot
	// before binding.
	UpdateNeeded
)

func (br BindResults) String() string {
	switch br {
	case BindOnly:
		return "BindOnly"
	case UpdateNeeded:
		return "UpdateNeeded"
	}
	return "BindResultsInvalid"
}

// groupSlot is the per-frame-in-flight record for one binding group:
// whether GPU state for the slot has ever been written, the frame
// number it was last written at, and the texture references it was
// written with.
type groupSlot struct {
	written   bool
	lastFrame uint64
	textures  []TextureRef
}

// BindGroup tracks, per frame-in-flight slot, whether the GPU-side
// descriptor state for one shader-visible binding group (global,
// per-material-instance, ...) still matches CPU-side intent.  GPU
// writes happen at most once per (group, slot, frame-number) triple;
// later binds within the same frame reuse the written state.
//
// The frame-number check alone cannot guard against stale data when a
// group's backing memory is pooled and reassigned to a new logical
// owner (an instance's uniform offset can be recycled after release):
// callers must [BindGroup.Invalidate] on every ownership reassignment.
type BindGroup struct {
	// Name of this binding group, for diagnostics.
	Name string

	// Offset and Size locate this group's range in the shared
	// uniform backing buffer, as carved by the pool's suballocator.
	Offset int
	Size   int

	// textures is the CPU-side intent: the texture references the
	// group's sampler bindings should point at.
	textures []TextureRef

	slots [MaxFramesInFlight]groupSlot

	pool *BindPool
}

// SetTexture sets the CPU-side intent for sampled-texture binding i,
// growing the binding list as needed.  The reference carries the
// texture's current generation; a later generation mismatch (resize,
// mip regeneration) forces an update on the next BindOrUpdate.
func (bg *BindGroup) SetTexture(i int, tr TextureRef) {
	for len(bg.textures) <= i {
		bg.textures = append(bg.textures, TextureRef{})
	}
	bg.textures[i] = tr
}

// Texture returns the CPU-side intent for sampled-texture binding i.
func (bg *BindGroup) Texture(i int) TextureRef {
	if i >= len(bg.textures) {
		return TextureRef{}
	}
	return bg.textures[i]
}

// BindOrUpdate decides update-versus-bind-only for the given
// frame-in-flight slot at the given frame number.  The first call for
// a (slot, frame) returns UpdateNeeded and records the write; all
// subsequent calls for the same pair return BindOnly until the frame
// number advances, the group is invalidated, or a bound texture's
// generation goes stale.
func (bg *BindGroup) BindOrUpdate(slot int, frame uint64) BindResults {
	gs := &bg.slots[slot]
	if gs.written && gs.lastFrame == frame && !bg.texturesStale(gs) {
		return BindOnly
	}
	gs.written = true
	gs.lastFrame = frame
	gs.textures = append(gs.textures[:0], bg.textures...)
	return UpdateNeeded
}

// texturesStale reports whether any texture written for the slot no
// longer matches current intent, by identity or generation.
func (bg *BindGroup) texturesStale(gs *groupSlot) bool {
	if len(gs.textures) != len(bg.textures) {
		return true
	}
	for i, tr := range bg.textures {
		if gs.textures[i] != tr {
			return true
		}
	}
	return false
}

// Invalidate discards all cached per-slot write state, forcing
// UpdateNeeded on the next bind for every slot.  Must be called
// whenever the group's backing range is reassigned to a new logical
// owner.
func (bg *BindGroup) Invalidate() {
	for i := range bg.slots {
		bg.slots[i] = groupSlot{}
	}
}

// BindPool owns the shared uniform backing buffer for a family of
// binding groups, carving per-group byte ranges from a freelist
// suballocator.  Allocation failure is a hard resource-acquisition
// error surfaced to the caller, never ignored.
type BindPool struct {
	// Name of this pool, for diagnostics.
	Name string

	list   *freelist.List
	groups map[string]*BindGroup
	align  int
}

// NewBindPool returns a pool managing total bytes of uniform backing.
func NewBindPool(name string, total int) *BindPool {
	return &BindPool{
		Name:   name,
		list:   freelist.New(total),
		groups: make(map[string]*BindGroup),
		align:  1,
	}
}

// SetAlign sets the alignment for group offsets and sizes.  Backends
// with a minimum dynamic-offset alignment (Vulkan
// minUniformBufferOffsetAlignment) set it before any group is
// allocated; group sizes are rounded up so every carved offset lands
// on an alignment boundary.
func (bp *BindPool) SetAlign(align int) {
	if align > 1 {
		bp.align = align
	}
}

// Align returns the pool's offset alignment.
func (bp *BindPool) Align() int { return bp.align }

// AllocGroup carves a new binding group of the given byte size,
// rounded up to the pool's alignment, from the pool.  Returns
// freelist.ErrOutOfSpace (wrapped) if the backing buffer cannot fit
// it, and ErrDuplicateName for a reused name.
func (bp *BindPool) AllocGroup(name string, size int) (*BindGroup, error) {
	if _, has := bp.groups[name]; has {
		return nil, fmt.Errorf("%w: binding group %q in pool %q", ErrDuplicateName, name, bp.Name)
	}
	if bp.align > 1 {
		size = (size + bp.align - 1) / bp.align * bp.align
	}
	off, err := bp.list.Allocate(size)
	if err != nil {
		return nil, errors.Log(fmt.Errorf("rendergraph: pool %q group %q: %w", bp.Name, name, err))
	}
	bg := &BindGroup{Name: name, Offset: off, Size: size, pool: bp}
	bp.groups[name] = bg
	return bg, nil
}

// FreeGroup returns the group's range to the pool and invalidates its
// cached state, since the range may be handed to a different owner.
func (bp *BindPool) FreeGroup(bg *BindGroup) error {
	if bg.pool != bp {
		return fmt.Errorf("rendergraph: group %q not owned by pool %q", bg.Name, bp.Name)
	}
	bg.Invalidate()
	delete(bp.groups, bg.Name)
	bg.pool = nil
	return bp.list.Free(bg.Offset, bg.Size)
}

// Group returns a named group, or nil if not present.
func (bp *BindPool) Group(name string) *BindGroup {
	return bp.groups[name]
}

// FreeSpace returns the unallocated bytes remaining in the pool.
func (bp *BindPool) FreeSpace() int { return bp.list.FreeSpace() }

// Total returns the total byte capacity of the pool's backing buffer.
func (bp *BindPool) Total() int { return bp.list.Total }
