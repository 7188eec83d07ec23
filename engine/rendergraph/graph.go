package rendergraph

import (
	vk "github.com/goki/vulkan"

	"github.com/hollowengine/rendergraph/engine/core"
)

// Graph owns the full pass/resource arena and the artifacts produced by
// Bake(): the scheduled pass order, physical resource/pass plans, and the
// per-resource synchronisation state that persists across frames. Passes
// and resources are values referred to only by integer index (PassID /
// ResourceID); there is no pointer-based ownership graph, per design note
// 4.9 ("Ownership graph").
type Graph struct {
	resources      []*Resource
	resourceByName map[string]ResourceID

	passes      []*Pass
	passByName  map[string]PassID

	backbufferSource string
	backbufferDims   PhysicalDimensions

	quirks          Quirks
	timestampsOn    bool

	// --- Bake() artifacts ---

	scheduled []PassID

	physicalDimensions []PhysicalDimensions
	// physicalAliases[i] is the physical index a slot was ultimately
	// folded into by build_aliases; physicalAliases[i] == i when i is not
	// aliased onto anything earlier.
	physicalAliases []PhysicalIndex

	physicalPasses []*PhysicalPass

	// physicalImageHasHistory mirrors PhysicalDimensions.HasHistory for
	// quick indexed lookup from the submission engine.
	physicalImageHasHistory []bool

	// passBarriers holds the per-scheduled-pass (not per physical-pass)
	// invalidate/flush requirements computed by buildBarriers, consumed by
	// buildPhysicalBarriers to fold them down to physical-pass boundaries.
	passBarriers []passBarrierSet

	// swapchainPhysicalIndex is the physical slot aliased directly to the
	// true swapchain image, or PhysicalIndexUnused when a blit fallback is
	// required (4.6, "Swapchain handling").
	swapchainPhysicalIndex PhysicalIndex

	// eventState is the current-frame per-physical-slot sync state (8);
	// historyState is the previous-frame copy used when a slot has
	// history. swapHistory exchanges the entries of slots flagged with
	// history at the end of EnqueueRenderPasses.
	eventState   []PhysicalEventState
	historyState []PhysicalEventState

	// persistentPhysicalBuffers holds buffer handles installed via
	// InstallPersistentPhysicalBufferResource, surviving Reset()+Bake()
	// cycles for persistent buffer resources (10.4 supplemented feature).
	persistentPhysicalBuffers map[PhysicalIndex]interface{}

	// boundResources holds the handles SetupAttachments bound this frame,
	// read back by EnqueueRenderPasses so barrier/render-pass/mipmap
	// emission can reference a physical slot's concrete Device handle
	// without threading it through every call (4.6, "setup_attachments").
	boundResources map[PhysicalIndex]interface{}
}

// NewGraph constructs an empty graph with the given device quirks.
func NewGraph(quirks Quirks) *Graph {
	return &Graph{
		resourceByName:            make(map[string]ResourceID),
		passByName:                make(map[string]PassID),
		quirks:                    quirks,
		persistentPhysicalBuffers: make(map[PhysicalIndex]interface{}),
	}
}

// SetBackbufferSource names the logical resource that must end up in the
// true swapchain image; Bake() discovers the minimal pass set required to
// produce it (4.2).
func (g *Graph) SetBackbufferSource(name string) { g.backbufferSource = name }

// SetBackbufferDimensions records the true swapchain's physical shape, used
// by the submission engine to decide between the direct-alias fast path and
// the blit fallback (4.6, "Swapchain handling").
func (g *Graph) SetBackbufferDimensions(dims PhysicalDimensions) { g.backbufferDims = dims }

// EnableTimestamps toggles per-physical-pass GPU timestamp queries. Actual
// query-pool allocation belongs to the Device (out of core scope, 1); this
// only flags intent, restoring the donor's enable_timestamps (10.4).
func (g *Graph) EnableTimestamps(enable bool) { g.timestampsOn = enable }

// Reset discards all baked artifacts and pass/resource declarations so the
// builder calls can be replayed identically (8, invariant 7: idempotence).
// Persistent physical buffers installed via InstallPersistentPhysicalBufferResource
// survive Reset, matching the donor's install_physical_buffers contract.
func (g *Graph) Reset() {
	g.resources = nil
	g.resourceByName = make(map[string]ResourceID)
	g.passes = nil
	g.passByName = make(map[string]PassID)
	g.scheduled = nil
	g.physicalDimensions = nil
	g.physicalAliases = nil
	g.physicalPasses = nil
	g.physicalImageHasHistory = nil
	g.passBarriers = nil
	g.swapchainPhysicalIndex = PhysicalIndexUnused
	g.eventState = nil
	g.historyState = nil
	g.boundResources = nil
}

// Bake runs components 3 through 6: dependency traversal + reordering,
// physical resource planning (incl. transients and aliasing), physical pass
// planning (subpass merge), and barrier synthesis. On success the graph is
// ready for per-frame SetupAttachments/EnqueueRenderPasses calls.
func (g *Graph) Bake() error {
	if g.backbufferSource == "" {
		return newGraphError(ErrDanglingDependency, "", "", "no backbuffer source set")
	}
	if _, ok := g.resourceByName[g.backbufferSource]; !ok {
		return newGraphError(ErrDanglingDependency, "", g.backbufferSource, "backbuffer resource never declared")
	}

	if err := validatePasses(g); err != nil {
		core.LogError(err.Error())
		return err
	}

	flattened, err := traverseDependencies(g)
	if err != nil {
		core.LogError(err.Error())
		return err
	}

	scheduled, err := reorderPasses(g, flattened)
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	g.scheduled = scheduled

	if err := buildPhysicalResources(g); err != nil {
		core.LogError(err.Error())
		return err
	}

	if err := buildPhysicalPasses(g); err != nil {
		core.LogError(err.Error())
		return err
	}

	// Transient promotion needs per-physical-pass touch counts, so it runs
	// after physical passes are known, matching the donor's actual bake()
	// ordering rather than the component-table order in §2 (which lists
	// dependency order of concerns, not call order).
	buildTransients(g)

	if err := buildBarriers(g); err != nil {
		core.LogError(err.Error())
		return err
	}
	resolveSwapchainAlias(g)
	buildPhysicalBarriers(g)
	buildAttachmentOps(g)
	buildAliases(g)

	g.eventState = make([]PhysicalEventState, len(g.physicalDimensions))
	g.historyState = make([]PhysicalEventState, len(g.physicalDimensions))
	for i := range g.eventState {
		g.eventState[i].Layout = vk.ImageLayoutUndefined
		g.historyState[i].Layout = vk.ImageLayoutUndefined
	}

	return nil
}

// ConsumePhysicalBuffers returns the handles currently installed for
// persistent physical buffer slots, so the caller can keep them alive
// across a Reset()+Bake() cycle (10.4).
func (g *Graph) ConsumePhysicalBuffers() map[PhysicalIndex]interface{} {
	return g.persistentPhysicalBuffers
}

// InstallPhysicalBuffers replaces the persistent physical buffer table
// wholesale, used when restoring state produced by a prior ConsumePhysicalBuffers.
func (g *Graph) InstallPhysicalBuffers(buffers map[PhysicalIndex]interface{}) {
	g.persistentPhysicalBuffers = buffers
}

// InstallPersistentPhysicalBufferResource pins a single persistent buffer
// handle to a physical index ahead of SetupAttachments, so it is reused
// rather than recreated (10.4).
func (g *Graph) InstallPersistentPhysicalBufferResource(index PhysicalIndex, buffer interface{}) {
	g.persistentPhysicalBuffers[index] = buffer
}

// Log emits a diagnostic dump of the baked physical slots and passes via
// engine/core's structured logger, restoring the donor's RenderGraph::log()
// (10.4).
func (g *Graph) Log() {
	core.LogDebug("rendergraph: %d logical resources, %d physical slots, %d scheduled passes, %d physical passes",
		len(g.resources), len(g.physicalDimensions), len(g.scheduled), len(g.physicalPasses))

	for i, dims := range g.physicalDimensions {
		kind := "image"
		if dims.IsBuffer() {
			kind = "buffer"
		}
		core.LogDebug("  physical[%d] name=%s kind=%s transient=%v persistent=%v history=%v queues=%#x",
			i, dims.Name, kind, dims.Transient, dims.Persistent, dims.HasHistory, uint32(dims.Queues))
	}

	for _, pp := range g.physicalPasses {
		names := make([]string, len(pp.Passes))
		for i, id := range pp.Passes {
			names[i] = g.passes[id].Name
		}
		core.LogDebug("  physical pass: subpasses=%v colors=%v depth=%v", names, pp.PhysicalColorAttachments, pp.PhysicalDepthStencilAttachment)
	}
}
