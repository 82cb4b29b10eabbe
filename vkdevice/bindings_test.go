// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdevice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cogentcore.org/rendergraph"
)

func TestMemSizeAlign(t *testing.T) {
	assert.Equal(t, 17, memSizeAlign(17, 0))
	assert.Equal(t, 17, memSizeAlign(17, 1))
	assert.Equal(t, 64, memSizeAlign(17, 64))
	assert.Equal(t, 64, memSizeAlign(64, 64))
	assert.Equal(t, 512, memSizeAlign(300, 256))
}

// Groups wider than the descriptor range are rejected at allocation,
// since the dynamic offset cannot rebase past the fixed range.
func TestAllocGroupRangeLimit(t *testing.T) {
	bd := &Bindings{pool: rendergraph.NewBindPool("uniforms", 1024)}
	_, err := bd.AllocGroup("big", MaxBindGroupSize+1)
	assert.Error(t, err)

	bg, err := bd.AllocGroup("fits", MaxBindGroupSize)
	require.NoError(t, err)
	assert.Equal(t, MaxBindGroupSize, bg.Size)
}
