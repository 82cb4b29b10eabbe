// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package freelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateFirstFit(t *testing.T) {
	fl := New(64)
	a, err := fl.Allocate(16)
	require.NoError(t, err)
	assert.Equal(t, 0, a)
	b, err := fl.Allocate(16)
	require.NoError(t, err)
	assert.Equal(t, 16, b)
	assert.Equal(t, 32, fl.FreeSpace())

	// freeing a creates a hole at the front; first-fit reuses it
	require.NoError(t, fl.Free(a, 16))
	c, err := fl.Allocate(8)
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestExactFitConsumesNode(t *testing.T) {
	fl := New(32)
	a, _ := fl.Allocate(8)
	_, _ = fl.Allocate(8)
	require.NoError(t, fl.Free(a, 8))
	assert.Equal(t, 2, fl.NodeCount()) // hole + tail

	// exact-size match consumes the hole node entirely
	b, err := fl.Allocate(8)
	require.NoError(t, err)
	assert.Equal(t, 0, b)
	assert.Equal(t, 1, fl.NodeCount())
}

func TestOutOfSpace(t *testing.T) {
	fl := New(32)
	_, err := fl.Allocate(16)
	require.NoError(t, err)
	_, err = fl.Allocate(17)
	assert.ErrorIs(t, err, ErrOutOfSpace)

	// fragmented: 16 free bytes total but no contiguous 16-byte run
	b, _ := fl.Allocate(8)
	_, _ = fl.Allocate(8)
	require.NoError(t, fl.Free(b, 8))
	require.NoError(t, fl.Free(0, 8))
	assert.Equal(t, 16, fl.FreeSpace())
	_, err = fl.Allocate(16)
	assert.ErrorIs(t, err, ErrOutOfSpace)
}

func TestThreeWayMerge(t *testing.T) {
	fl := New(48)
	a, _ := fl.Allocate(16)
	b, _ := fl.Allocate(16)
	c, _ := fl.Allocate(16)
	require.NoError(t, fl.Free(a, 16))
	require.NoError(t, fl.Free(c, 16))
	assert.Equal(t, 2, fl.NodeCount())

	// freeing the middle range merges with both neighbors
	require.NoError(t, fl.Free(b, 16))
	assert.Equal(t, 1, fl.NodeCount())
	assert.Equal(t, 48, fl.FreeSpace())
}

func TestRoundTrip(t *testing.T) {
	fl := New(256)
	type alloc struct{ off, size int }
	var live []alloc
	sizes := []int{32, 8, 64, 16, 8, 128}
	for _, sz := range sizes {
		off, err := fl.Allocate(sz)
		require.NoError(t, err)
		live = append(live, alloc{off, sz})
	}
	assert.Equal(t, 0, fl.FreeSpace())
	_, err := fl.Allocate(1)
	assert.ErrorIs(t, err, ErrOutOfSpace)

	// free in a scrambled order; everything must coalesce back
	order := []int{3, 0, 5, 2, 4, 1}
	for _, i := range order {
		require.NoError(t, fl.Free(live[i].off, live[i].size))
	}
	assert.Equal(t, 256, fl.FreeSpace())
	assert.Equal(t, 1, fl.NodeCount())

	off, err := fl.Allocate(256)
	require.NoError(t, err)
	assert.Equal(t, 0, off)
}

func TestInvalidFree(t *testing.T) {
	fl := New(32)
	assert.Error(t, fl.Free(-1, 8))
	assert.Error(t, fl.Free(24, 16))
	assert.Error(t, fl.Free(0, 0))
}

func TestReset(t *testing.T) {
	fl := New(64)
	_, _ = fl.Allocate(64)
	assert.Equal(t, 0, fl.FreeSpace())
	fl.Reset()
	assert.Equal(t, 64, fl.FreeSpace())
	assert.Equal(t, 1, fl.NodeCount())
}
