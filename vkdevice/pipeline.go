// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdevice

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// ShaderTypes is the stage a shader module runs in.
type ShaderTypes int32

const (
	VertexShader ShaderTypes = iota
	FragmentShader
)

var shaderStageFlags = map[ShaderTypes]vk.ShaderStageFlagBits{
	VertexShader:   vk.ShaderStageVertexBit,
	FragmentShader: vk.ShaderStageFragmentBit,
}

// Shader is one SPIR-V module within a pipeline.
type Shader struct {
	Name     string
	Type     ShaderTypes
	VkModule vk.ShaderModule
}

// OpenCode creates the shader module from SPIR-V bytecode.
func (sh *Shader) OpenCode(dev vk.Device, code []byte) error {
	if len(code) == 0 || len(code)%4 != 0 {
		return fmt.Errorf("vkdevice: shader %s: SPIR-V code length %d is not a multiple of 4", sh.Name, len(code))
	}
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(dev, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    unsafe.Slice((*uint32)(unsafe.Pointer(&code[0])), len(code)/4),
	}, nil, &module)
	if err := errVk(ret); err != nil {
		return err
	}
	sh.VkModule = module
	return nil
}

// Free destroys the shader module; modules are not needed once the
// pipeline is built.
func (sh *Shader) Free(dev vk.Device) {
	if sh.VkModule != vk.NullShaderModule {
		vk.DestroyShaderModule(dev, sh.VkModule, nil)
		sh.VkModule = vk.NullShaderModule
	}
}

// Pipeline is a graphics pipeline built for the device's default
// onscreen renderpass.  Configure with Set* methods between
// NewPipeline and Config; defaults are set for typical 3D rendering
// with the depth buffer.
type Pipeline struct {
	Name    string
	Shaders []*Shader

	// VkConfig collects the creation options; Set* methods write here.
	VkConfig   vk.GraphicsPipelineCreateInfo
	VkPipeline vk.Pipeline
	VkCache    vk.PipelineCache
}

// NewPipeline returns a pipeline with graphics defaults set.
func NewPipeline(name string) *Pipeline {
	pl := &Pipeline{Name: name}
	pl.SetGraphicsDefaults()
	return pl
}

// AddShaderCode adds a shader stage from SPIR-V bytecode.
func (pl *Pipeline) AddShaderCode(dev vk.Device, name string, typ ShaderTypes, code []byte) error {
	sh := &Shader{Name: name, Type: typ}
	if err := sh.OpenCode(dev, code); err != nil {
		return err
	}
	pl.Shaders = append(pl.Shaders, sh)
	return nil
}

// SetGraphicsDefaults sets triangle-list topology, filled polygons
// with back-face culling and counter-clockwise front faces, alpha
// blending, and dynamic viewport / scissor.
func (pl *Pipeline) SetGraphicsDefaults() {
	pl.SetDynamicState()
	pl.SetTopology(vk.PrimitiveTopologyTriangleList, false)
	pl.SetRasterization(vk.PolygonModeFill, vk.CullModeBackBit, vk.FrontFaceCounterClockwise, 1.0)
	pl.SetColorBlend(true)
}

// SetDynamicState makes viewport and scissor dynamic; the frame
// orchestrator sets both each frame.
func (pl *Pipeline) SetDynamicState() {
	pl.VkConfig.PDynamicState = &vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: 2,
		PDynamicStates: []vk.DynamicState{
			vk.DynamicStateScissor,
			vk.DynamicStateViewport,
		},
	}
}

// SetTopology sets the primitive topology; TriangleList is default.
func (pl *Pipeline) SetTopology(topo vk.PrimitiveTopology, restartEnable bool) {
	rese := vk.False
	if restartEnable {
		rese = vk.True
	}
	pl.VkConfig.PInputAssemblyState = &vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               topo,
		PrimitiveRestartEnable: vk.Bool32(rese),
	}
}

// SetRasterization sets polygon fill, culling, winding order, and
// line width.
func (pl *Pipeline) SetRasterization(polygonMode vk.PolygonMode, cullMode vk.CullModeFlagBits, frontFace vk.FrontFace, lineWidth float32) {
	pl.VkConfig.PRasterizationState = &vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: polygonMode,
		CullMode:    vk.CullModeFlags(cullMode),
		FrontFace:   frontFace,
		LineWidth:   lineWidth,
	}
}

// SetColorBlend selects 1-source alpha blending (true) or overwrite
// (false).
func (pl *Pipeline) SetColorBlend(alphaBlend bool) {
	var cb vk.PipelineColorBlendAttachmentState
	cb.ColorWriteMask = 0xF
	if alphaBlend {
		cb.BlendEnable = vk.True
		cb.SrcColorBlendFactor = vk.BlendFactorOne
		cb.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		cb.ColorBlendOp = vk.BlendOpAdd
		cb.SrcAlphaBlendFactor = vk.BlendFactorOne
		cb.DstAlphaBlendFactor = vk.BlendFactorZero
		cb.AlphaBlendOp = vk.BlendOpAdd
	}
	pl.VkConfig.PColorBlendState = &vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{cb},
	}
}

// SetVertexInput sets vertex binding and attribute descriptions.
// Default is no vertex input (vertices generated in the shader).
func (pl *Pipeline) SetVertexInput(bindings []vk.VertexInputBindingDescription, attrs []vk.VertexInputAttributeDescription) {
	pl.VkConfig.PVertexInputState = &vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attrs)),
		PVertexAttributeDescriptions:    attrs,
	}
}

func (pl *Pipeline) configStages() {
	ns := len(pl.Shaders)
	pl.VkConfig.StageCount = uint32(ns)
	stgs := make([]vk.PipelineShaderStageCreateInfo, ns)
	for i, sh := range pl.Shaders {
		stgs[i] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  shaderStageFlags[sh.Type],
			Module: sh.VkModule,
			PName:  "main\x00",
		}
	}
	pl.VkConfig.PStages = stgs
}

// Config builds the pipeline against the device's default renderpass
// with the given layout, once shaders are loaded and Set* options
// chosen.  Shader modules are freed after a successful build.
func (pl *Pipeline) Config(d *Device, layout vk.PipelineLayout) error {
	if pl.VkPipeline != vk.NullPipeline {
		return nil
	}
	pl.configStages()
	pl.VkConfig.SType = vk.StructureTypeGraphicsPipelineCreateInfo
	if pl.VkConfig.PVertexInputState == nil {
		pl.VkConfig.PVertexInputState = &vk.PipelineVertexInputStateCreateInfo{
			SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
		}
	}
	pl.VkConfig.Layout = layout
	pl.VkConfig.RenderPass = d.target.Pass
	pl.VkConfig.PMultisampleState = &vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
	}
	pl.VkConfig.PViewportState = &vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ScissorCount:  1,
		ViewportCount: 1,
	}
	pl.VkConfig.PDepthStencilState = &vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vk.True,
		DepthWriteEnable:      vk.True,
		DepthCompareOp:        vk.CompareOpLessOrEqual,
		DepthBoundsTestEnable: vk.False,
		StencilTestEnable:     vk.False,
		Front: vk.StencilOpState{
			FailOp: vk.StencilOpKeep, PassOp: vk.StencilOpKeep, CompareOp: vk.CompareOpAlways,
		},
		Back: vk.StencilOpState{
			FailOp: vk.StencilOpKeep, PassOp: vk.StencilOpKeep, CompareOp: vk.CompareOpAlways,
		},
	}

	var cache vk.PipelineCache
	ret := vk.CreatePipelineCache(d.dev.Device, &vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}, nil, &cache)
	if err := errVk(ret); err != nil {
		return err
	}
	pl.VkCache = cache

	pipeline := make([]vk.Pipeline, 1)
	ret = vk.CreateGraphicsPipelines(d.dev.Device, pl.VkCache, 1,
		[]vk.GraphicsPipelineCreateInfo{pl.VkConfig}, nil, pipeline)
	if err := errVk(ret); err != nil {
		return err
	}
	pl.VkPipeline = pipeline[0]
	pl.freeShaders(d.dev.Device)
	return nil
}

func (pl *Pipeline) freeShaders(dev vk.Device) {
	for _, sh := range pl.Shaders {
		sh.Free(dev)
	}
}

// Bind binds the pipeline on the command buffer; the renderpass must
// be active.
func (pl *Pipeline) Bind(cmd vk.CommandBuffer) {
	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, pl.VkPipeline)
}

// Draw records a non-indexed draw.
func (pl *Pipeline) Draw(cmd vk.CommandBuffer, vtxCount, instanceCount, firstVtx, firstInstance int) {
	vk.CmdDraw(cmd, uint32(vtxCount), uint32(instanceCount), uint32(firstVtx), uint32(firstInstance))
}

func (pl *Pipeline) Destroy(dev vk.Device) {
	pl.freeShaders(dev)
	if pl.VkCache != vk.NullPipelineCache {
		vk.DestroyPipelineCache(dev, pl.VkCache, nil)
		pl.VkCache = vk.NullPipelineCache
	}
	if pl.VkPipeline != vk.NullPipeline {
		vk.DestroyPipeline(dev, pl.VkPipeline, nil)
		pl.VkPipeline = vk.NullPipeline
	}
}
