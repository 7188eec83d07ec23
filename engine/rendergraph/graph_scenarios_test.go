package rendergraph

import (
	"fmt"
	"sync"
	"testing"

	vk "github.com/goki/vulkan"
)

// fakeCommandBuffer/fakeDevice/fakeTaskGroup/fakeTaskComposer stand in for
// the real Vulkan/worker-pool adapters (engine/renderer/vulkan,
// engine/containers) so these tests exercise Bake()/SetupAttachments()/
// EnqueueRenderPasses() against the exported Device/CommandBuffer/
// TaskComposer surface without a live GPU.
type fakeCommandBuffer struct {
	barriers int
}

func (c *fakeCommandBuffer) Handle() vk.CommandBuffer { return vk.CommandBuffer(nil) }
func (c *fakeCommandBuffer) PipelineBarrier(srcStage, dstStage vk.PipelineStageFlags, imageBarriers []vk.ImageMemoryBarrier, bufferBarriers []vk.BufferMemoryBarrier) {
	c.barriers++
}
func (c *fakeCommandBuffer) SignalEvent(event vk.Event, stage vk.PipelineStageFlags) {}
func (c *fakeCommandBuffer) WaitEvent(event vk.Event, srcStage, dstStage vk.PipelineStageFlags, imageBarriers []vk.ImageMemoryBarrier) {
	c.barriers++
}

type fakeDevice struct {
	mu            sync.Mutex
	submits       int
	images        int
	buffers       int
	flushed       bool
	submitQueue   []QueueKind
	events        int
	semaphores    int
	renderPasses  int
	mipmapsBuilt  int
	scaledClears  int
}

func (d *fakeDevice) RequestCommandBuffer(queue QueueKind) (CommandBuffer, error) {
	return &fakeCommandBuffer{}, nil
}
func (d *fakeDevice) Submit(queue QueueKind, cmd CommandBuffer, wait []vk.Semaphore, signal []vk.Semaphore) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.submits++
	d.submitQueue = append(d.submitQueue, queue)
	return nil
}
func (d *fakeDevice) CreateImage(dims PhysicalDimensions) (interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.images++
	return fmt.Sprintf("image:%s", dims.Name), nil
}
func (d *fakeDevice) CreateBuffer(dims PhysicalDimensions) (interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buffers++
	return fmt.Sprintf("buffer:%s", dims.Name), nil
}
func (d *fakeDevice) FlushFrame() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flushed = true
}

func (d *fakeDevice) CreateEvent() (vk.Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events++
	var event vk.Event
	return event, nil
}
func (d *fakeDevice) CreateSemaphore() (vk.Semaphore, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.semaphores++
	var semaphore vk.Semaphore
	return semaphore, nil
}
func (d *fakeDevice) BuildImageBarrier(image interface{}, oldLayout, newLayout vk.ImageLayout, srcAccess, dstAccess vk.AccessFlags, aspectMask vk.ImageAspectFlags) vk.ImageMemoryBarrier {
	return vk.ImageMemoryBarrier{SType: vk.StructureTypeImageMemoryBarrier, OldLayout: oldLayout, NewLayout: newLayout, SrcAccessMask: srcAccess, DstAccessMask: dstAccess}
}
func (d *fakeDevice) BeginRenderPass(cmd CommandBuffer, info RenderPassBeginInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.renderPasses++
	return nil
}
func (d *fakeDevice) NextSubpass(cmd CommandBuffer) {}
func (d *fakeDevice) EndRenderPass(cmd CommandBuffer) {}
func (d *fakeDevice) ScaledClear(cmd CommandBuffer, target, source interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scaledClears++
	return nil
}
func (d *fakeDevice) GenerateMipmaps(cmd CommandBuffer, image interface{}, dims PhysicalDimensions) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mipmapsBuilt++
	return nil
}

type fakeTaskGroup struct {
	wg sync.WaitGroup
}

func (g *fakeTaskGroup) Enqueue(fn func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn()
	}()
}
func (g *fakeTaskGroup) Wait() { g.wg.Wait() }

type fakeTaskComposer struct{}

func (c *fakeTaskComposer) BeginPipelineStage() TaskGroup { return &fakeTaskGroup{} }

// Scenario A: simple forward-lit graph (world pass -> backbuffer), direct
// swapchain alias expected since the only writer is a transient,
// single-queue color attachment matching the backbuffer's declared shape.
func TestScenarioASimpleForwardGraph(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	world := g.AddPass("world", QueueGraphics)
	world.AddColorOutput(g, "scene-color", colorAttachment(), "")
	world.SetBuildRenderPass(func(cmd CommandBuffer) {})

	g.SetBackbufferSource("scene-color")
	g.SetBackbufferDimensions(PhysicalDimensions{AttachmentInfo: colorAttachment(), Persistent: true})

	if err := g.Bake(); err != nil {
		t.Fatalf("Bake: %v", err)
	}
	if g.swapchainPhysicalIndex == PhysicalIndexUnused {
		t.Fatalf("expected scenario A's single transient color output to alias directly onto the swapchain")
	}

	device := &fakeDevice{}
	if _, err := g.SetupAttachments(device, "swapchain-image"); err != nil {
		t.Fatalf("SetupAttachments: %v", err)
	}
	if err := g.EnqueueRenderPasses(device, &fakeTaskComposer{}); err != nil {
		t.Fatalf("EnqueueRenderPasses: %v", err)
	}
	if !device.flushed {
		t.Fatalf("expected FlushFrame to be called")
	}
}

// Scenario B: a shadow-map history read has no in-frame producer itself,
// but the graph must still require some pass write the current-frame
// resource for the history chain to be valid (8, invariant 1).
func TestScenarioBHistoryReadRequiresACurrentWriter(t *testing.T) {
	g := NewGraph(DefaultQuirks())

	shadow := g.AddPass("shadow", QueueGraphics)
	shadow.SetDepthStencilOutput(g, "shadow-map", AttachmentInfo{
		SizeClass: SizeAbsolute, SizeX: 1024, SizeY: 1024,
		Format: vk.FormatD32Sfloat, Samples: vk.SampleCount1Bit, Levels: 1, Layers: 1,
	})

	world := g.AddPass("world", QueueGraphics)
	world.AddHistoryInput(g, "shadow-map")
	world.AddColorOutput(g, "scene-color", colorAttachment(), "")

	g.SetBackbufferSource("scene-color")
	g.SetBackbufferDimensions(PhysicalDimensions{AttachmentInfo: colorAttachment(), Persistent: true})

	if err := g.Bake(); err != nil {
		t.Fatalf("Bake: %v", err)
	}

	shadowID := g.resourceByName["shadow-map"]
	phys := g.resources[shadowID].PhysicalIndex
	if !g.physicalImageHasHistory[phys] {
		t.Fatalf("expected shadow-map's physical slot to be flagged HasHistory-eligible")
	}
}

// Scenario C: async-compute feeding graphics must never be fused into the
// same physical (subpass-merged) pass.
func TestScenarioCAsyncComputeFeedsGraphics(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	info := colorAttachment()

	compute := g.AddPass("particle-sim", QueueCompute)
	computeOut := compute.AddStorageTextureOutput(g, "particle-field", info, "")

	world := g.AddPass("world", QueueGraphics)
	world.AddStorageTextureInput(g, g.resources[computeOut].Name)
	world.AddColorOutput(g, "scene-color", info, "")

	g.SetBackbufferSource("scene-color")
	g.SetBackbufferDimensions(PhysicalDimensions{AttachmentInfo: info, Persistent: true})

	if err := g.Bake(); err != nil {
		t.Fatalf("Bake: %v", err)
	}
	if len(g.physicalPasses) != 2 {
		t.Fatalf("expected compute and graphics to remain distinct physical passes, got %d", len(g.physicalPasses))
	}
}

// Scenario D: a pass with no path to the backbuffer is pruned entirely and
// must not appear in any baked artifact.
func TestScenarioDUnreachablePassPruned(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	info := colorAttachment()

	world := g.AddPass("world", QueueGraphics)
	world.AddColorOutput(g, "scene-color", info, "")

	debug := g.AddPass("debug-overlay", QueueGraphics)
	debug.AddColorOutput(g, "debug-color", info, "")

	g.SetBackbufferSource("scene-color")
	g.SetBackbufferDimensions(PhysicalDimensions{AttachmentInfo: info, Persistent: true})

	if err := g.Bake(); err != nil {
		t.Fatalf("Bake: %v", err)
	}

	for _, id := range g.scheduled {
		if id == debug.ID {
			t.Fatalf("expected the unreachable debug-overlay pass to be pruned from the baked schedule")
		}
	}
}

// Scenario E: a color/depth pair confined to a single physical pass with no
// history and a transient-friendly quirk set is promoted to transient.
func TestScenarioETransientPromotion(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	info := colorAttachment()
	depthInfo := AttachmentInfo{
		SizeClass: SizeSwapchainRelative, SizeX: 1, SizeY: 1,
		Format: vk.FormatD32Sfloat, Samples: vk.SampleCount1Bit, Levels: 1, Layers: 1,
	}

	world := g.AddPass("world", QueueGraphics)
	world.AddColorOutput(g, "scene-color", info, "")
	world.SetDepthStencilOutput(g, "scene-depth", depthInfo)

	g.SetBackbufferSource("scene-color")
	g.SetBackbufferDimensions(PhysicalDimensions{AttachmentInfo: info, Persistent: true})

	if err := g.Bake(); err != nil {
		t.Fatalf("Bake: %v", err)
	}

	depthID := g.resourceByName["scene-depth"]
	depthPhys := g.resources[depthID].PhysicalIndex
	if !g.physicalDimensions[depthPhys].Transient {
		t.Fatalf("expected the single-pass depth attachment to be promoted transient")
	}
}

// Scenario F: when the backbuffer resource is also consumed by a compute
// pass, it cannot be safely aliased onto the swapchain image and the blit
// fallback must be used instead.
func TestScenarioFSwapchainBlitFallbackWhenReadByCompute(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	info := colorAttachment()

	world := g.AddPass("world", QueueGraphics)
	worldColor := world.AddColorOutput(g, "scene-color", info, "")

	postfx := g.AddPass("postfx-readback", QueueCompute)
	postfx.AddTextureInput(g, g.resources[worldColor].Name, 0)
	postfx.AddStorageOutput(g, "luminance-histogram", BufferInfo{Size: 256}, "")

	g.SetBackbufferSource("scene-color")
	g.SetBackbufferDimensions(PhysicalDimensions{AttachmentInfo: info, Persistent: true})

	if err := g.Bake(); err != nil {
		t.Fatalf("Bake: %v", err)
	}

	if g.swapchainPhysicalIndex != PhysicalIndexUnused {
		t.Fatalf("expected a blit fallback when the backbuffer resource is also read on the compute queue")
	}

	device := &fakeDevice{}
	if _, err := g.SetupAttachments(device, "swapchain-image"); err != nil {
		t.Fatalf("SetupAttachments: %v", err)
	}
	if err := g.EnqueueRenderPasses(device, &fakeTaskComposer{}); err != nil {
		t.Fatalf("EnqueueRenderPasses: %v", err)
	}
	if device.submits == 0 {
		t.Fatalf("expected at least one submit for the blit fallback pass")
	}
}
