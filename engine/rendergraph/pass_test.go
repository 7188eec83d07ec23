package rendergraph

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
)

func swapchainAttachment(format vk.Format) AttachmentInfo {
	return AttachmentInfo{
		SizeClass: SizeSwapchainRelative,
		SizeX:     1.0,
		SizeY:     1.0,
		Format:    format,
		Samples:   vk.SampleCount1Bit,
		Levels:    1,
		Layers:    1,
	}
}

func TestAddPassIdempotent(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	p1 := g.AddPass("world", QueueGraphics)
	p2 := g.AddPass("world", QueueGraphics)
	if p1 != p2 {
		t.Fatalf("AddPass should return the existing pass for a repeated name")
	}
	if len(g.passes) != 1 {
		t.Fatalf("expected 1 pass, got %d", len(g.passes))
	}
}

func TestAddColorOutputMarksWriterAndQueue(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	p := g.AddPass("world", QueueGraphics)
	id := p.AddColorOutput(g, "world-color", swapchainAttachment(vk.FormatR8g8b8a8Unorm), "")

	res := g.resources[id]
	if !res.hasWriter() {
		t.Fatalf("expected color output to mark resource as written")
	}
	if !res.UsedQueues.Has(QueueGraphics) {
		t.Fatalf("expected resource to record graphics queue usage")
	}
	if res.ImageUsage&vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit) == 0 {
		t.Fatalf("expected color attachment usage bit to be set")
	}
}

func TestAddColorOutputRMWPair(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	info := swapchainAttachment(vk.FormatR8g8b8a8Unorm)

	first := g.AddPass("first", QueueGraphics)
	firstOut := first.AddColorOutput(g, "color", info, "")

	second := g.AddPass("second", QueueGraphics)
	second.AddColorOutput(g, "color", info, "color")

	if second.ColorInputs[0] != firstOut {
		t.Fatalf("expected second pass's color input to reference the same resource as the first pass's output")
	}
	if _, ok := g.resources[firstOut].ReadInPasses[second.ID]; !ok {
		t.Fatalf("expected RMW input to mark the resource read by the second pass")
	}
}

func TestAddTextureInputMergesStageMasks(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	p := g.AddPass("world", QueueGraphics)
	id := p.AddTextureInput(g, "shadow-map", vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit))
	p.AddTextureInput(g, "shadow-map", vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit))

	if len(p.GenericTextureInputs) != 1 {
		t.Fatalf("expected repeated AddTextureInput calls to merge into one entry, got %d", len(p.GenericTextureInputs))
	}
	want := vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit) | vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit)
	if p.GenericTextureInputs[0].Stages != want {
		t.Fatalf("expected merged stage mask %v, got %v", want, p.GenericTextureInputs[0].Stages)
	}
	if p.GenericTextureInputs[0].Resource != id {
		t.Fatalf("unexpected resource id recorded")
	}
}

func TestValidatePassesShapeMismatch(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	p := g.AddPass("broken", QueueGraphics)
	p.ColorInputs = append(p.ColorInputs, ResourceNone)
	// ColorOutputs intentionally left empty to trigger the count mismatch.

	err := validatePasses(g)
	if err == nil {
		t.Fatalf("expected shape mismatch error")
	}
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestValidatePassesDemotesMismatchedColorRMW(t *testing.T) {
	g := NewGraph(DefaultQuirks())

	fullRes := swapchainAttachment(vk.FormatR8g8b8a8Unorm)
	halfRes := swapchainAttachment(vk.FormatR8g8b8a8Unorm)
	halfRes.SizeX = 0.5
	halfRes.SizeY = 0.5

	producer := g.AddPass("producer", QueueGraphics)
	producer.AddColorOutput(g, "half", halfRes, "")

	consumer := g.AddPass("consumer", QueueGraphics)
	consumer.AddColorOutput(g, "full", fullRes, "half")

	if err := validatePasses(g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if consumer.ColorInputs[0] != ResourceNone {
		t.Fatalf("expected mismatched RMW pair to be demoted, ColorInputs[0] still set")
	}
	if consumer.ColorScaleInputs[0] == ResourceNone {
		t.Fatalf("expected mismatched RMW pair to land in ColorScaleInputs")
	}
}

func TestAddHistoryInputMarksHistory(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	p := g.AddPass("taa", QueueGraphics)
	id := p.AddHistoryInput(g, "prev-frame")
	if !g.resources[id].IsHistory {
		t.Fatalf("expected history input to set IsHistory")
	}
	if len(p.HistoryInputs) != 1 {
		t.Fatalf("expected one history input recorded on the pass")
	}
}
