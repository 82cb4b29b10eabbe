// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScratchAlloc(t *testing.T) {
	var sc Scratch
	sc.Init(128)

	a := sc.Alloc(10, 0)
	require.NotNil(t, a)
	assert.Len(t, a, 10)

	b := sc.Alloc(8, 16)
	require.NotNil(t, b)
	assert.Equal(t, 0, sc.Used()%8) // 16-aligned start + 8 bytes

	// exhaustion returns nil, not a panic
	c := sc.Alloc(1024, 0)
	assert.Nil(t, c)

	sc.Reset()
	assert.Equal(t, 0, sc.Used())
	d := sc.Alloc(128, 0)
	require.NotNil(t, d)
}

func TestScratchZeroed(t *testing.T) {
	var sc Scratch
	sc.Init(64)
	a := sc.Alloc(16, 0)
	for i := range a {
		a[i] = 0xff
	}
	sc.Reset()
	b := sc.Alloc(16, 0)
	for _, v := range b {
		assert.Zero(t, v)
	}
}
