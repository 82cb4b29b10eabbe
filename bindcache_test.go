// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cogentcore.org/rendergraph/freelist"
)

// bind_or_update is idempotent within a (group, slot, frame) triple:
// UpdateNeeded the first time, BindOnly until the frame advances.
func TestBindOrUpdateIdempotent(t *testing.T) {
	bp := NewBindPool("uniforms", 1024)
	bg, err := bp.AllocGroup("global", 256)
	require.NoError(t, err)

	assert.Equal(t, UpdateNeeded, bg.BindOrUpdate(0, 1))
	assert.Equal(t, BindOnly, bg.BindOrUpdate(0, 1))
	assert.Equal(t, BindOnly, bg.BindOrUpdate(0, 1))

	// frame advances: one write again
	assert.Equal(t, UpdateNeeded, bg.BindOrUpdate(0, 2))
	assert.Equal(t, BindOnly, bg.BindOrUpdate(0, 2))

	// other slots are tracked independently
	assert.Equal(t, UpdateNeeded, bg.BindOrUpdate(1, 2))
	assert.Equal(t, BindOnly, bg.BindOrUpdate(1, 2))
	assert.Equal(t, BindOnly, bg.BindOrUpdate(0, 2))
}

func TestBindFirstFrameZero(t *testing.T) {
	bp := NewBindPool("uniforms", 1024)
	bg, err := bp.AllocGroup("global", 64)
	require.NoError(t, err)
	// frame number 0 must still trigger the initial write
	assert.Equal(t, UpdateNeeded, bg.BindOrUpdate(0, 0))
	assert.Equal(t, BindOnly, bg.BindOrUpdate(0, 0))
}

// Invalidate forces a rewrite on every slot, guarding against stale
// data when a pooled range is reassigned to a new owner.
func TestInvalidateOnReassign(t *testing.T) {
	bp := NewBindPool("instances", 1024)
	bg, err := bp.AllocGroup("inst0", 128)
	require.NoError(t, err)

	assert.Equal(t, UpdateNeeded, bg.BindOrUpdate(0, 5))
	assert.Equal(t, UpdateNeeded, bg.BindOrUpdate(1, 5))
	assert.Equal(t, BindOnly, bg.BindOrUpdate(0, 5))

	bg.Invalidate()
	assert.Equal(t, UpdateNeeded, bg.BindOrUpdate(0, 5))
	assert.Equal(t, UpdateNeeded, bg.BindOrUpdate(1, 5))
}

// A texture generation change (resize, mip regeneration) forces an
// update even within the same frame, so the GPU-side view reference
// is rebuilt rather than skipped.
func TestTextureGenerationStaleness(t *testing.T) {
	bp := NewBindPool("material", 1024)
	bg, err := bp.AllocGroup("mat0", 128)
	require.NoError(t, err)

	bg.SetTexture(0, TextureRef{ID: 7, Generation: 1})
	assert.Equal(t, UpdateNeeded, bg.BindOrUpdate(0, 3))
	assert.Equal(t, BindOnly, bg.BindOrUpdate(0, 3))

	bg.SetTexture(0, TextureRef{ID: 7, Generation: 2})
	assert.Equal(t, UpdateNeeded, bg.BindOrUpdate(0, 3))
	assert.Equal(t, BindOnly, bg.BindOrUpdate(0, 3))

	// a different texture entirely is also stale
	bg.SetTexture(0, TextureRef{ID: 8, Generation: 2})
	assert.Equal(t, UpdateNeeded, bg.BindOrUpdate(0, 3))
}

func TestPoolAllocFailure(t *testing.T) {
	bp := NewBindPool("small", 256)
	_, err := bp.AllocGroup("a", 200)
	require.NoError(t, err)
	_, err = bp.AllocGroup("b", 100)
	assert.ErrorIs(t, err, freelist.ErrOutOfSpace)
	_, err = bp.AllocGroup("a", 8)
	assert.ErrorIs(t, err, ErrDuplicateName)
}

// With an alignment set, group sizes round up so every carved offset
// is a multiple of the alignment, as dynamic uniform offsets require.
func TestPoolAlignment(t *testing.T) {
	bp := NewBindPool("aligned", 1024)
	bp.SetAlign(256)
	assert.Equal(t, 256, bp.Align())

	a, err := bp.AllocGroup("a", 16)
	require.NoError(t, err)
	assert.Equal(t, 0, a.Offset)
	assert.Equal(t, 256, a.Size)

	b, err := bp.AllocGroup("b", 300)
	require.NoError(t, err)
	assert.Equal(t, 256, b.Offset)
	assert.Equal(t, 512, b.Size)

	// 256 bytes remain but a 300-byte request rounds to 512
	_, err = bp.AllocGroup("c", 300)
	assert.ErrorIs(t, err, freelist.ErrOutOfSpace)

	require.NoError(t, bp.FreeGroup(a))
	c, err := bp.AllocGroup("c", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Offset)
	assert.Equal(t, 256, c.Size)
}

func TestPoolFreeRecycles(t *testing.T) {
	bp := NewBindPool("pool", 256)
	a, err := bp.AllocGroup("a", 256)
	require.NoError(t, err)
	assert.Equal(t, 0, bp.FreeSpace())

	require.NoError(t, bp.FreeGroup(a))
	assert.Equal(t, 256, bp.FreeSpace())
	assert.Nil(t, bp.Group("a"))

	b, err := bp.AllocGroup("b", 256)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Offset) // recycled range
	// the recycled range starts invalidated for every slot
	assert.Equal(t, UpdateNeeded, b.BindOrUpdate(0, 1))
}
