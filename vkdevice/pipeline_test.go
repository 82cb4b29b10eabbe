// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdevice

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

// Pipeline configuration is plain struct assembly, so it is testable
// without a GPU; anything touching a device is covered by the
// examples instead.

func TestPipelineDefaults(t *testing.T) {
	pl := NewPipeline("test")

	assert.NotNil(t, pl.VkConfig.PDynamicState)
	assert.Equal(t, uint32(2), pl.VkConfig.PDynamicState.DynamicStateCount)

	assert.NotNil(t, pl.VkConfig.PInputAssemblyState)
	assert.Equal(t, vk.PrimitiveTopologyTriangleList, pl.VkConfig.PInputAssemblyState.Topology)

	rs := pl.VkConfig.PRasterizationState
	assert.NotNil(t, rs)
	assert.Equal(t, vk.PolygonModeFill, rs.PolygonMode)
	assert.Equal(t, vk.FrontFaceCounterClockwise, rs.FrontFace)
	assert.Equal(t, float32(1), rs.LineWidth)

	cb := pl.VkConfig.PColorBlendState
	assert.NotNil(t, cb)
	assert.Equal(t, vk.Bool32(vk.True), cb.PAttachments[0].BlendEnable)
}

func TestPipelineOverrides(t *testing.T) {
	pl := NewPipeline("test")
	pl.SetTopology(vk.PrimitiveTopologyLineList, false)
	pl.SetRasterization(vk.PolygonModeLine, vk.CullModeNone, vk.FrontFaceClockwise, 2)
	pl.SetColorBlend(false)

	assert.Equal(t, vk.PrimitiveTopologyLineList, pl.VkConfig.PInputAssemblyState.Topology)
	assert.Equal(t, vk.FrontFaceClockwise, pl.VkConfig.PRasterizationState.FrontFace)
	assert.Equal(t, vk.Bool32(vk.False), pl.VkConfig.PColorBlendState.PAttachments[0].BlendEnable)
}

func TestShaderCodeValidation(t *testing.T) {
	sh := &Shader{Name: "bad", Type: VertexShader}
	err := sh.OpenCode(nil, []byte{1, 2, 3})
	assert.Error(t, err)
	err = sh.OpenCode(nil, nil)
	assert.Error(t, err)
}
