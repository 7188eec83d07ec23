package systems

import (
	vk "github.com/goki/vulkan"

	"github.com/hollowengine/rendergraph/engine/rendergraph"
)

// DeclareGraph builds a Graph describing one frame's world/skybox/UI/pick
// passes, replacing the donor's three hand-wired fixed RenderPass objects
// with declarations against the render graph builder API (SPEC_FULL §10,
// "renderview.go is adapted to declare its passes against the render graph
// builder API"). The Build callbacks registered here are empty: draw calls
// are still issued by the per-view-type render functions outside the graph,
// and the graph only declares, orders and barriers the passes.
//
// width/height are the swapchain's current framebuffer extent; format is
// the swapchain's color format. Views not currently registered are
// skipped, so a caller with only a world+UI setup gets a two-pass graph.
// The pick pass only reads the last color output and writes nothing the
// backbuffer depends on, so Bake prunes it from the schedule.
func (rvs *RenderViewSystem) DeclareGraph(width, height uint32, format vk.Format) (*rendergraph.Graph, error) {
	g := rendergraph.NewGraph(rendergraph.DefaultQuirks())

	backbufferInfo := rendergraph.AttachmentInfo{
		SizeClass: rendergraph.SizeSwapchainRelative,
		SizeX:     1.0,
		SizeY:     1.0,
		Format:    format,
		Samples:   vk.SampleCount1Bit,
		Levels:    1,
		Layers:    1,
	}

	depthInfo := rendergraph.AttachmentInfo{
		SizeClass: rendergraph.SizeSwapchainRelative,
		SizeX:     1.0,
		SizeY:     1.0,
		Format:    vk.FormatD32Sfloat,
		Samples:   vk.SampleCount1Bit,
		Levels:    1,
		Layers:    1,
	}

	var lastColor string

	if view := rvs.Get("skybox"); view != nil {
		pass := g.AddPass("skybox", rendergraph.QueueGraphics)
		pass.AddColorOutput(g, "skybox-color", backbufferInfo, "")
		pass.SetBuildRenderPass(func(cmd rendergraph.CommandBuffer) {
			// Draw calls issued by skyboxOnRenderView already bind their own
			// pipeline state against rvs.renderer; cmd is available for
			// callers that need the raw handle for barrier-adjacent work.
		})
		lastColor = "skybox-color"
	}

	if view := rvs.Get("world"); view != nil {
		pass := g.AddPass("world", rendergraph.QueueGraphics)
		if lastColor != "" {
			pass.AddColorOutput(g, "world-color", backbufferInfo, lastColor)
		} else {
			pass.AddColorOutput(g, "world-color", backbufferInfo, "")
		}
		pass.SetDepthStencilOutput(g, "world-depth", depthInfo)
		pass.SetBuildRenderPass(func(cmd rendergraph.CommandBuffer) {})
		lastColor = "world-color"
	}

	if view := rvs.Get("ui"); view != nil {
		pass := g.AddPass("ui", rendergraph.QueueGraphics)
		if lastColor != "" {
			pass.AddColorOutput(g, "ui-color", backbufferInfo, lastColor)
		} else {
			pass.AddColorOutput(g, "ui-color", backbufferInfo, "")
		}
		pass.SetBuildRenderPass(func(cmd rendergraph.CommandBuffer) {})
		lastColor = "ui-color"
	}

	if view := rvs.Get("pick"); view != nil {
		pass := g.AddPass("pick", rendergraph.QueueGraphics)
		pass.AddAttachmentInput(g, lastColor)
		pass.SetBuildRenderPass(func(cmd rendergraph.CommandBuffer) {})
	}

	if lastColor == "" {
		return nil, rendergraph.ErrDanglingDependency
	}

	g.SetBackbufferSource(lastColor)
	g.SetBackbufferDimensions(rendergraph.PhysicalDimensions{
		AttachmentInfo: backbufferInfo,
		Persistent:     true,
	})

	if err := g.Bake(); err != nil {
		return nil, err
	}
	return g, nil
}
