package rendergraph

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestFindOrAddBarrierReusesEntryForSameResourceAndHistory(t *testing.T) {
	var list []Barrier
	b1 := findOrAddBarrier(&list, ResourceID(3), false)
	b1.AccessMask = vk.AccessFlags(vk.AccessShaderReadBit)

	b2 := findOrAddBarrier(&list, ResourceID(3), false)
	if len(list) != 1 {
		t.Fatalf("expected findOrAddBarrier to reuse the existing entry, got %d entries", len(list))
	}
	if b2.AccessMask != vk.AccessFlags(vk.AccessShaderReadBit) {
		t.Fatalf("expected reused barrier to retain previously accumulated access mask")
	}
}

func TestFindOrAddBarrierSeparatesHistoryFromCurrent(t *testing.T) {
	var list []Barrier
	findOrAddBarrier(&list, ResourceID(1), false)
	findOrAddBarrier(&list, ResourceID(1), true)
	if len(list) != 2 {
		t.Fatalf("expected the history and non-history barrier for the same resource to be distinct entries, got %d", len(list))
	}
}

func TestSetLayoutPromotesShaderReadWithColorWriteToGeneral(t *testing.T) {
	b := &Barrier{Layout: vk.ImageLayoutShaderReadOnlyOptimal}
	setLayout(b, vk.ImageLayoutColorAttachmentOptimal)
	if b.Layout != vk.ImageLayoutGeneral {
		t.Fatalf("expected programmable-blending promotion to General, got %v", b.Layout)
	}
}

func TestSetLayoutKeepsGeneralUnderColorWrite(t *testing.T) {
	b := &Barrier{Layout: vk.ImageLayoutGeneral}
	setLayout(b, vk.ImageLayoutColorAttachmentOptimal)
	if b.Layout != vk.ImageLayoutGeneral {
		t.Fatalf("expected General layout to be sticky against a subsequent color-attachment write, got %v", b.Layout)
	}
}

func TestBuildBarriersSingleReadAfterWriteProducesOneInvalidate(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	info := colorAttachment()

	producer := g.AddPass("producer", QueueGraphics)
	producerOut := producer.AddColorOutput(g, "scene-color", info, "")

	consumer := g.AddPass("consumer", QueueGraphics)
	consumer.AddTextureInput(g, g.resources[producerOut].Name, vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit))
	consumer.AddColorOutput(g, "final-color", info, "")

	g.SetBackbufferSource("final-color")
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
	if err := buildPhysicalPasses(g); err != nil {
		t.Fatalf("buildPhysicalPasses: %v", err)
	}
	buildTransients(g)

	if err := buildBarriers(g); err != nil {
		t.Fatalf("buildBarriers: %v", err)
	}

	var consumerIdx = -1
	for i, id := range g.scheduled {
		if id == consumer.ID {
			consumerIdx = i
		}
	}
	if consumerIdx == -1 {
		t.Fatalf("consumer pass missing from schedule")
	}

	found := false
	for _, b := range g.passBarriers[consumerIdx].Invalidate {
		if b.Resource == producerOut {
			found = true
			if b.AccessMask&vk.AccessFlags(vk.AccessShaderReadBit) == 0 {
				t.Fatalf("expected shader-read access recorded on the invalidate barrier")
			}
		}
	}
	if !found {
		t.Fatalf("expected an invalidate barrier for the producer's output on the consumer pass")
	}
}

func TestNeedInvalidateSkipsAlreadyVisibleAccess(t *testing.T) {
	state := &PhysicalEventState{}
	state.InvalidatedInStage[0] = vk.AccessFlags(vk.AccessShaderReadBit)

	barrier := Barrier{
		AccessMask: vk.AccessFlags(vk.AccessShaderReadBit),
		StageMask:  vk.PipelineStageFlags(1),
	}
	if needInvalidate(barrier, state) {
		t.Fatalf("expected already-visible access to not require another invalidate")
	}

	barrier.AccessMask |= vk.AccessFlags(vk.AccessShaderWriteBit)
	if !needInvalidate(barrier, state) {
		t.Fatalf("expected a newly-required access type to require invalidation")
	}
}

func TestUpdateEventStateTracksFlushThenInvalidate(t *testing.T) {
	state := &PhysicalEventState{}
	flush := &Barrier{AccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit), Layout: vk.ImageLayoutColorAttachmentOptimal}
	updateEventState(state, nil, flush)
	if state.ToFlushAccess&vk.AccessFlags(vk.AccessColorAttachmentWriteBit) == 0 {
		t.Fatalf("expected flush access to accumulate in ToFlushAccess")
	}

	invalidate := &Barrier{
		AccessMask: vk.AccessFlags(vk.AccessShaderReadBit),
		StageMask:  vk.PipelineStageFlags(1),
		Layout:     vk.ImageLayoutShaderReadOnlyOptimal,
	}
	updateEventState(state, invalidate, nil)
	if state.ToFlushAccess != 0 {
		t.Fatalf("expected invalidate to clear pending flush access")
	}
	if state.Layout != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Fatalf("expected layout to be updated to the invalidate barrier's layout")
	}
	if state.InvalidatedInStage[0]&vk.AccessFlags(vk.AccessShaderReadBit) == 0 {
		t.Fatalf("expected invalidate to mark the stage as having visibility to the access type")
	}
}
