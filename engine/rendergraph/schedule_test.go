package rendergraph

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
)

func colorAttachment() AttachmentInfo {
	return AttachmentInfo{
		SizeClass: SizeSwapchainRelative,
		SizeX:     1,
		SizeY:     1,
		Format:    vk.FormatR8g8b8a8Unorm,
		Samples:   vk.SampleCount1Bit,
		Levels:    1,
		Layers:    1,
	}
}

func TestTraverseDependenciesPrunesUnreachablePass(t *testing.T) {
	g := NewGraph(DefaultQuirks())

	world := g.AddPass("world", QueueGraphics)
	world.AddColorOutput(g, "scene-color", colorAttachment(), "")

	// A pass that writes a resource nothing ever reads must not appear in
	// the flattened, backbuffer-reachable schedule (scenario D).
	orphan := g.AddPass("debug-overlay", QueueGraphics)
	orphan.AddColorOutput(g, "debug-color", colorAttachment(), "")

	g.SetBackbufferSource("scene-color")

	if err := validatePasses(g); err != nil {
		t.Fatalf("validatePasses: %v", err)
	}
	flattened, err := traverseDependencies(g)
	if err != nil {
		t.Fatalf("traverseDependencies: %v", err)
	}

	for _, id := range flattened {
		if id == orphan.ID {
			t.Fatalf("expected unreachable pass %q to be pruned from the schedule", orphan.Name)
		}
	}
	if len(flattened) != 1 || flattened[0] != world.ID {
		t.Fatalf("expected only the world pass scheduled, got %v", flattened)
	}
}

func TestTraverseDependenciesDanglingBackbuffer(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	g.GetTextureResource("scene-color")
	g.SetBackbufferSource("scene-color")

	if err := validatePasses(g); err != nil {
		t.Fatalf("validatePasses: %v", err)
	}
	_, err := traverseDependencies(g)
	if err == nil {
		t.Fatalf("expected dangling dependency error for a backbuffer with no writer")
	}
	if !errors.Is(err, ErrDanglingDependency) {
		t.Fatalf("expected ErrDanglingDependency, got %v", err)
	}
}

func TestTraverseDependenciesOrdersProducerBeforeConsumer(t *testing.T) {
	g := NewGraph(DefaultQuirks())

	shadow := g.AddPass("shadow", QueueGraphics)
	shadow.SetDepthStencilOutput(g, "shadow-map", AttachmentInfo{
		SizeClass: SizeAbsolute, SizeX: 1024, SizeY: 1024,
		Format: vk.FormatD32Sfloat, Samples: vk.SampleCount1Bit, Levels: 1, Layers: 1,
	})

	world := g.AddPass("world", QueueGraphics)
	world.AddTextureInput(g, "shadow-map", vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit))
	world.AddColorOutput(g, "scene-color", colorAttachment(), "")

	g.SetBackbufferSource("scene-color")

	if err := validatePasses(g); err != nil {
		t.Fatalf("validatePasses: %v", err)
	}
	flattened, err := traverseDependencies(g)
	if err != nil {
		t.Fatalf("traverseDependencies: %v", err)
	}

	shadowPos, worldPos := -1, -1
	for i, id := range flattened {
		if id == shadow.ID {
			shadowPos = i
		}
		if id == world.ID {
			worldPos = i
		}
	}
	if shadowPos == -1 || worldPos == -1 {
		t.Fatalf("expected both passes scheduled, got %v", flattened)
	}
	if shadowPos >= worldPos {
		t.Fatalf("expected shadow pass to be scheduled before the world pass that reads it")
	}
}

func TestDependOnPassesCycleDetection(t *testing.T) {
	g := NewGraph(DefaultQuirks())

	a := g.AddPass("a", QueueGraphics)
	b := g.AddPass("b", QueueGraphics)

	// Force a direct cycle: a reads what b writes, b reads what a writes.
	aOut := a.AddColorOutput(g, "a-out", colorAttachment(), "")
	bOut := b.AddColorOutput(g, "b-out", colorAttachment(), "")
	a.AddTextureInput(g, g.resources[bOut].Name, vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit))
	b.AddTextureInput(g, g.resources[aOut].Name, vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit))

	g.SetBackbufferSource("a-out")

	if err := validatePasses(g); err != nil {
		t.Fatalf("validatePasses: %v", err)
	}
	_, err := traverseDependencies(g)
	if err == nil {
		t.Fatalf("expected a cycle error for mutually-dependent passes")
	}
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestReorderPassesKeepsMergeDependentsAdjacent(t *testing.T) {
	g := NewGraph(DefaultQuirks())

	world := g.AddPass("world", QueueGraphics)
	worldColor := world.AddColorOutput(g, "world-color", colorAttachment(), "")
	world.SetDepthStencilOutput(g, "world-depth", AttachmentInfo{
		SizeClass: SizeSwapchainRelative, SizeX: 1, SizeY: 1,
		Format: vk.FormatD32Sfloat, Samples: vk.SampleCount1Bit, Levels: 1, Layers: 1,
	})

	ui := g.AddPass("ui", QueueGraphics)
	ui.AddColorOutput(g, "ui-color", colorAttachment(), g.resources[worldColor].Name)

	g.SetBackbufferSource("ui-color")

	if err := validatePasses(g); err != nil {
		t.Fatalf("validatePasses: %v", err)
	}
	flattened, err := traverseDependencies(g)
	if err != nil {
		t.Fatalf("traverseDependencies: %v", err)
	}
	scheduled, err := reorderPasses(g, flattened)
	if err != nil {
		t.Fatalf("reorderPasses: %v", err)
	}

	worldPos, uiPos := -1, -1
	for i, id := range scheduled {
		if id == world.ID {
			worldPos = i
		}
		if id == ui.ID {
			uiPos = i
		}
	}
	if worldPos == -1 || uiPos == -1 {
		t.Fatalf("expected both passes scheduled, got %v", scheduled)
	}
	if uiPos != worldPos+1 {
		t.Fatalf("expected ui pass immediately after world pass for subpass-merge adjacency, got world=%d ui=%d", worldPos, uiPos)
	}
}
