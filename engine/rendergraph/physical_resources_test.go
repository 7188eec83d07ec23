package rendergraph

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
)

func buildSimpleForwardGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph(DefaultQuirks())

	world := g.AddPass("world", QueueGraphics)
	world.AddColorOutput(g, "scene-color", colorAttachment(), "")
	world.SetDepthStencilOutput(g, "scene-depth", AttachmentInfo{
		SizeClass: SizeSwapchainRelative, SizeX: 1, SizeY: 1,
		Format: vk.FormatD32Sfloat, Samples: vk.SampleCount1Bit, Levels: 1, Layers: 1,
	})

	g.SetBackbufferSource("scene-color")
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
	return g
}

func TestBuildPhysicalResourcesAssignsEachResourceOneSlot(t *testing.T) {
	g := buildSimpleForwardGraph(t)
	if err := buildPhysicalResources(g); err != nil {
		t.Fatalf("buildPhysicalResources: %v", err)
	}

	colorID := g.resourceByName["scene-color"]
	depthID := g.resourceByName["scene-depth"]
	if g.resources[colorID].PhysicalIndex == PhysicalIndexUnused {
		t.Fatalf("expected scene-color to receive a physical slot")
	}
	if g.resources[depthID].PhysicalIndex == PhysicalIndexUnused {
		t.Fatalf("expected scene-depth to receive a physical slot")
	}
	if g.resources[colorID].PhysicalIndex == g.resources[depthID].PhysicalIndex {
		t.Fatalf("color and depth must not share a physical slot")
	}
}

func TestBuildPhysicalResourcesRMWSharesSlot(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	info := colorAttachment()

	first := g.AddPass("first", QueueGraphics)
	first.AddColorOutput(g, "color", info, "")

	second := g.AddPass("second", QueueGraphics)
	second.AddColorOutput(g, "color", info, "color")

	g.SetBackbufferSource("color")
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

	if err := buildPhysicalResources(g); err != nil {
		t.Fatalf("buildPhysicalResources: %v", err)
	}

	resID := g.resourceByName["color"]
	if g.resources[resID].PhysicalIndex == PhysicalIndexUnused {
		t.Fatalf("expected a physical slot assigned to the RMW resource")
	}
}

func TestBuildPhysicalResourcesDanglingHistoryInput(t *testing.T) {
	g := NewGraph(DefaultQuirks())

	consumer := g.AddPass("consumer", QueueGraphics)
	consumer.AddHistoryInput(g, "never-written")
	consumer.AddColorOutput(g, "scene-color", colorAttachment(), "")

	g.SetBackbufferSource("scene-color")
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

	err = buildPhysicalResources(g)
	if err == nil {
		t.Fatalf("expected an error for a history input with no writer anywhere in the graph")
	}
	if !errors.Is(err, ErrDanglingDependency) {
		t.Fatalf("expected ErrDanglingDependency, got %v", err)
	}
}

func TestPhysicalRangeDisjoint(t *testing.T) {
	early := newPhysicalRange()
	early.registerWrite(0, false)
	early.registerRead(1)

	late := newPhysicalRange()
	late.registerWrite(2, false)
	late.registerRead(3)

	if !early.disjoint(&late) {
		t.Fatalf("expected non-overlapping ranges to be disjoint")
	}

	overlapping := newPhysicalRange()
	overlapping.registerWrite(1, false)
	overlapping.registerRead(2)

	if early.disjoint(&overlapping) {
		t.Fatalf("expected overlapping ranges not to be disjoint")
	}
}

func TestPhysicalRangeBlockAliasPreventsAliasing(t *testing.T) {
	r := newPhysicalRange()
	r.registerWrite(0, true)
	if r.canAlias() {
		t.Fatalf("expected blockAlias write to forbid aliasing")
	}
}
