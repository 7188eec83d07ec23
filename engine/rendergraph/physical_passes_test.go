package rendergraph

import "testing"

func bakeThrough(t *testing.T, g *Graph) {
	t.Helper()
	if err := buildPhysicalResources(g); err != nil {
		t.Fatalf("buildPhysicalResources: %v", err)
	}
	if err := buildPhysicalPasses(g); err != nil {
		t.Fatalf("buildPhysicalPasses: %v", err)
	}
}

func TestBuildPhysicalPassesMergesConsecutiveGraphicsPasses(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	info := colorAttachment()

	world := g.AddPass("world", QueueGraphics)
	worldColor := world.AddColorOutput(g, "world-color", info, "")

	ui := g.AddPass("ui", QueueGraphics)
	ui.AddColorOutput(g, "ui-color", info, g.resources[worldColor].Name)

	g.SetBackbufferSource("ui-color")
	g.SetBackbufferDimensions(PhysicalDimensions{AttachmentInfo: info, Persistent: true})

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
	g.scheduled = scheduled

	bakeThrough(t, g)

	if len(g.physicalPasses) != 1 {
		t.Fatalf("expected the RMW-chained world/ui passes to merge into a single physical pass, got %d", len(g.physicalPasses))
	}
	if len(g.physicalPasses[0].Passes) != 2 {
		t.Fatalf("expected 2 subpasses in the merged physical pass, got %d", len(g.physicalPasses[0].Passes))
	}
}

func TestBuildPhysicalPassesQueueChangeBlocksMerge(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	info := colorAttachment()

	compute := g.AddPass("compute-prepass", QueueCompute)
	computeOut := compute.AddStorageTextureOutput(g, "compute-out", info, "")

	world := g.AddPass("world", QueueGraphics)
	world.AddTextureInput(g, g.resources[computeOut].Name, 0)
	world.AddColorOutput(g, "world-color", info, "")

	g.SetBackbufferSource("world-color")
	g.SetBackbufferDimensions(PhysicalDimensions{AttachmentInfo: info, Persistent: true})

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
	g.scheduled = scheduled

	bakeThrough(t, g)

	if len(g.physicalPasses) != 2 {
		t.Fatalf("expected compute and graphics passes to never merge, got %d physical passes", len(g.physicalPasses))
	}
}

func TestShouldMergeRejectsMipmappedOutput(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	mipped := colorAttachment()
	mipped.Levels = 4

	prev := g.AddPass("mip-gen", QueueGraphics)
	prevOut := prev.AddColorOutput(g, "mip-color", mipped, "")

	next := g.AddPass("consume", QueueGraphics)
	next.AddTextureInput(g, g.resources[prevOut].Name, 0)
	next.AddColorOutput(g, "final-color", colorAttachment(), "")

	g.SetBackbufferSource("final-color")
	g.SetBackbufferDimensions(PhysicalDimensions{AttachmentInfo: colorAttachment(), Persistent: true})

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
	g.scheduled = scheduled

	bakeThrough(t, g)

	if len(g.physicalPasses) != 2 {
		t.Fatalf("expected a mipmapped producer to block subpass merging, got %d physical passes", len(g.physicalPasses))
	}
}
