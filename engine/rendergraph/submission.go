package rendergraph

import (
	vk "github.com/goki/vulkan"

	"github.com/hollowengine/rendergraph/engine/core"
)

// zeroEvent is the unset value of a vk.Event handle, used instead of a
// named vk.NullEvent constant since no existing call site in this repo
// exercises vk.Event to confirm that identifier's name.
var zeroEvent vk.Event

// CommandBuffer is the minimal recording surface a pass's Build callback
// needs: the raw Vulkan handle for pipeline calls the callback issues
// itself, plus the barrier/event primitives the submission engine inserts
// around callbacks without pulling the whole Vulkan device package into
// this one (design note 4.9, "Device/CommandBuffer as consumed
// interfaces").
type CommandBuffer interface {
	Handle() vk.CommandBuffer
	PipelineBarrier(srcStage, dstStage vk.PipelineStageFlags, imageBarriers []vk.ImageMemoryBarrier, bufferBarriers []vk.BufferMemoryBarrier)

	// SignalEvent records that the access/stage a flush just produced has
	// become (or will become) visible, restoring vkCmdSetEvent against the
	// donor's per-resource Event handle (4.5, "signal_event").
	SignalEvent(event vk.Event, stage vk.PipelineStageFlags)

	// WaitEvent is the same-queue counterpart to a prior SignalEvent: it
	// folds the wait and the resulting image barrier into one
	// vkCmdWaitEvents call instead of a plain vkCmdPipelineBarrier, so a
	// driver can start the wait as soon as the event is observed rather
	// than at the top of the pipe (4.5, "handle_invalidate_barrier").
	WaitEvent(event vk.Event, srcStage, dstStage vk.PipelineStageFlags, imageBarriers []vk.ImageMemoryBarrier)
}

// RenderPassBeginInfo is everything the Device needs to construct and
// begin a physical pass's VkRenderPass/VkFramebuffer, restoring the
// donor's RenderPassInfo argument to Vulkan::CommandBuffer::begin_render_pass
// (4.4/4.6).
type RenderPassBeginInfo struct {
	PhysicalPass *PhysicalPass

	ColorImages     []interface{}
	ColorDimensions []PhysicalDimensions

	DepthStencilImage interface{}
	DepthStencilDims  PhysicalDimensions

	// ClearColors is keyed by position within PhysicalPass.PhysicalColorAttachments.
	ClearColors       map[int]vk.ClearValue
	ClearDepthStencil vk.ClearValue
	HasDepthClear     bool
}

// Device is the consumed collaborator that owns actual GPU resource
// lifetime: physical slot allocation, command buffer acquisition per
// queue, render pass object construction, and frame-boundary bookkeeping.
// The rendergraph package never allocates a VkImage, VkBuffer, or
// VkRenderPass itself - that is Device's job, adapted from
// engine/renderer/vulkan (10.1).
type Device interface {
	RequestCommandBuffer(queue QueueKind) (CommandBuffer, error)
	Submit(queue QueueKind, cmd CommandBuffer, wait []vk.Semaphore, signal []vk.Semaphore) error
	CreateImage(dims PhysicalDimensions) (interface{}, error)
	CreateBuffer(dims PhysicalDimensions) (interface{}, error)
	FlushFrame()

	// CreateEvent / CreateSemaphore hand the submission engine fresh
	// synchronisation primitives to populate PhysicalEventState with,
	// restoring the donor's per-resource Event/Semaphore pool (4.5).
	CreateEvent() (vk.Event, error)
	CreateSemaphore() (vk.Semaphore, error)

	// BuildImageBarrier resolves image (an opaque handle from CreateImage/
	// SetupAttachments) to a concrete vk.Image and fills out the rest of
	// the memory barrier, keeping this package free of the Device's
	// concrete image wrapper type (4.9).
	BuildImageBarrier(image interface{}, oldLayout, newLayout vk.ImageLayout, srcAccess, dstAccess vk.AccessFlags, aspectMask vk.ImageAspectFlags) vk.ImageMemoryBarrier

	// BeginRenderPass / NextSubpass / EndRenderPass bracket a physical
	// pass's subpasses, restoring the donor's
	// Vulkan::CommandBuffer::{begin,next_subpass,end}_render_pass (4.4/4.6).
	BeginRenderPass(cmd CommandBuffer, info RenderPassBeginInfo) error
	NextSubpass(cmd CommandBuffer)
	EndRenderPass(cmd CommandBuffer)

	// ScaledClear blits source's contents into target to seed a color
	// attachment that is about to be entered with mismatched prior
	// content instead of a flat clear color, restoring the donor's
	// scaled_clear_request handling (4.4, Scenario F).
	ScaledClear(cmd CommandBuffer, target, source interface{}) error

	// GenerateMipmaps blits successive mip levels for a physical slot
	// flushed into TransferSrcOptimal by the mipmap path in buildBarriers,
	// restoring the donor's generate_mipmap (4.5/4.6 step 3).
	GenerateMipmaps(cmd CommandBuffer, image interface{}, dims PhysicalDimensions) error
}

// TaskGroup is one pipeline stage's unit of fork/join work, grounded in
// engine/systems/job.go's worker-pool JobSystem: a caller enqueues tasks
// into the group and the group's completion gates the next pipeline
// stage.
type TaskGroup interface {
	Enqueue(fn func())
	Wait()
}

// TaskComposer hands out successive TaskGroup stages, letting the
// submission engine pipeline physical-pass barrier emission against the
// previous stage's GPU submission without a single global barrier
// (4.6, "CPU submission pipelining").
type TaskComposer interface {
	BeginPipelineStage() TaskGroup
}

// PassSubmissionState accumulates one physical pass's resolved
// synchronisation requirements between EnqueueRenderPasses's barrier and
// submission phases, restoring the donor's RenderGraph::PassSubmissionState
// (4.6). The actual Event/Semaphore handles a pass waits on or signals
// live on the per-resource PhysicalEventState (8), not here; this only
// collects what must be passed to Device.Submit for this one pass.
type PassSubmissionState struct {
	active bool

	cmd CommandBuffer

	waitSemaphores   []vk.Semaphore
	signalSemaphores []vk.Semaphore
}

// emitPreBarriers walks pp's externally-visible invalidate barriers and,
// for each one that need_invalidate still reports necessary, resolves the
// producer's recorded synchronisation: a same-queue VkEvent wait, a
// cross-queue semaphore wait, or (on first use) a plain top-of-pipe
// barrier, restoring physical_pass_handle_invalidate_barrier (4.5/4.6).
func (g *Graph) emitPreBarriers(device Device, cmd CommandBuffer, pp *PhysicalPass, bound map[PhysicalIndex]interface{}, state *PassSubmissionState, queue QueueKind) {
	for i := range pp.Invalidate {
		inv := &pp.Invalidate[i]
		if inv.Physical == PhysicalIndexUnused {
			continue
		}
		es := g.eventStateFor(inv)
		if !needInvalidate(*inv, es) {
			continue
		}

		image, ok := bound[inv.Physical]
		if !ok {
			continue
		}
		dim := &g.physicalDimensions[inv.Physical]
		aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
		if formatHasDepthOrStencil(dim.Format) {
			aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
		}
		barrier := device.BuildImageBarrier(image, es.Layout, inv.Layout, es.ToFlushAccess, inv.AccessMask, aspect)

		switch {
		case dim.Queues.UsesSemaphore():
			if sem := waitSemaphoreFor(es, queue); sem != vk.NullSemaphore {
				state.waitSemaphores = append(state.waitSemaphores, sem)
			}
			cmd.PipelineBarrier(vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), inv.StageMask, []vk.ImageMemoryBarrier{barrier}, nil)
		case es.Event != zeroEvent:
			cmd.WaitEvent(es.Event, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), inv.StageMask, []vk.ImageMemoryBarrier{barrier})
			es.Event = zeroEvent
		default:
			cmd.PipelineBarrier(vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), inv.StageMask, []vk.ImageMemoryBarrier{barrier}, nil)
		}

		updateEventState(es, inv, nil)
	}
}

// emitPostBarriers walks pp's externally-visible flush barriers, updates
// each resource's persistent event state, and arranges the hand-off a
// later consumer will need: a freshly signalled VkEvent for a same-queue
// consumer, or a fresh semaphore pair pushed onto this pass's
// signalSemaphores for a cross-queue one, restoring
// physical_pass_handle_flush_barrier / handle_signal (4.5/4.6).
func (g *Graph) emitPostBarriers(device Device, cmd CommandBuffer, pp *PhysicalPass, queue QueueKind, state *PassSubmissionState) {
	for i := range pp.Flush {
		fl := &pp.Flush[i]
		if fl.Physical == PhysicalIndexUnused {
			continue
		}
		es := g.eventStateFor(fl)
		updateEventState(es, nil, fl)

		dim := &g.physicalDimensions[fl.Physical]
		if dim.Queues.UsesSemaphore() {
			sem, err := device.CreateSemaphore()
			if err != nil {
				core.LogError("rendergraph: create semaphore: %v", err)
				continue
			}
			assignSignalSemaphore(es, queue, sem)
			state.signalSemaphores = append(state.signalSemaphores, sem)
			continue
		}

		event, err := device.CreateEvent()
		if err != nil {
			core.LogError("rendergraph: create event: %v", err)
			continue
		}
		es.Event = event
		cmd.SignalEvent(event, fl.StageMask)
	}
}

// waitSemaphoreFor / assignSignalSemaphore pick the graphics- or
// compute-side half of a cross-queue hand-off depending on which queue is
// doing the waiting/signalling, matching Scenario C (async compute feeding
// graphics): a compute-pass flush signals the semaphore a graphics
// consumer waits on, and vice versa.
func waitSemaphoreFor(es *PhysicalEventState, consumer QueueKind) vk.Semaphore {
	if consumer == QueueGraphics || consumer == QueueAsyncGraphics {
		return es.WaitGraphicsSemaphore
	}
	return es.WaitComputeSemaphore
}

func assignSignalSemaphore(es *PhysicalEventState, producer QueueKind, sem vk.Semaphore) {
	if producer == QueueGraphics || producer == QueueAsyncGraphics {
		es.WaitComputeSemaphore = sem
	} else {
		es.WaitGraphicsSemaphore = sem
	}
}

func (s *PassSubmissionState) submit(device Device, queue QueueKind) error {
	if s.cmd == nil {
		return nil
	}
	return device.Submit(queue, s.cmd, s.waitSemaphores, s.signalSemaphores)
}

// physicalPassRequiresWork reports whether any subpass in pp actually has
// work to emit this frame, per each subpass's optional NeedRenderPass hook
// (4.4, conditional passes).
func physicalPassRequiresWork(g *Graph, pp *PhysicalPass) bool {
	for _, passID := range pp.Passes {
		pass := g.passes[passID]
		if pass.Callbacks.NeedRenderPass == nil || pass.Callbacks.NeedRenderPass() {
			return true
		}
	}
	return false
}

// SetupAttachments realises every physical slot as a concrete Device
// resource ahead of EnqueueRenderPasses, binding the swapchain view
// directly onto the aliased slot when resolveSwapchainAlias found one
// (4.6, "setup_attachments").
func (g *Graph) SetupAttachments(device Device, swapchainImage interface{}) (map[PhysicalIndex]interface{}, error) {
	bound := make(map[PhysicalIndex]interface{}, len(g.physicalDimensions))

	for i, dim := range g.physicalDimensions {
		idx := PhysicalIndex(i)

		if idx == g.swapchainPhysicalIndex {
			bound[idx] = swapchainImage
			continue
		}
		if dim.Persistent {
			if buf, ok := g.persistentPhysicalBuffers[idx]; ok {
				bound[idx] = buf
				continue
			}
		}

		var (
			handle interface{}
			err    error
		)
		if dim.IsBuffer() {
			handle, err = device.CreateBuffer(dim)
		} else {
			handle, err = device.CreateImage(dim)
		}
		if err != nil {
			return nil, newGraphError(ErrInfeasible, "", dim.Name, err.Error())
		}
		bound[idx] = handle

		if dim.Persistent {
			g.persistentPhysicalBuffers[idx] = handle
		}
	}

	g.boundResources = bound
	return bound, nil
}

// hasRenderPassAttachments reports whether pp touches any color or
// depth/stencil attachment at all - compute and transfer physical passes
// never do, and skip begin/end render pass entirely (4.4).
func hasRenderPassAttachments(pp *PhysicalPass) bool {
	return len(pp.PhysicalColorAttachments) > 0 || pp.PhysicalDepthStencilAttachment != PhysicalIndexUnused
}

// collectClearValues gathers each clear-flagged color/depth attachment's
// value from the owning subpass's GetClearColor/GetClearDepthStencil
// callback, restoring the donor's get_clear_color/get_clear_depth_stencil
// dispatch (4.4).
func (g *Graph) collectClearValues(pp *PhysicalPass) (map[int]vk.ClearValue, vk.ClearValue, bool) {
	colors := make(map[int]vk.ClearValue)
	var depthClear vk.ClearValue
	hasDepthClear := false

	for _, passID := range pp.Passes {
		pass := g.passes[passID]

		if pass.Callbacks.GetClearColor != nil {
			for i, out := range pass.ColorOutputs {
				phys := g.resources[out].PhysicalIndex
				slot := pp.colorAttachmentSlot(phys)
				if slot < 0 || pp.ClearAttachments&(1<<uint(slot)) == 0 {
					continue
				}
				if cv, ok := pass.Callbacks.GetClearColor(i); ok {
					colors[slot] = cv
				}
			}
		}

		if pp.ClearDepthStencil && pass.DepthStencilOutput != ResourceNone && pass.Callbacks.GetClearDepthStencil != nil {
			if cv, ok := pass.Callbacks.GetClearDepthStencil(); ok {
				depthClear = cv
				hasDepthClear = true
			}
		}
	}

	return colors, depthClear, hasDepthClear
}

// runScaledClears issues any scaled-clear requests a subpass registered,
// blitting another physical slot's contents in place of a flat clear
// color, restoring the donor's scaled_clear_request consumption (4.4/4.6
// step 4, Scenario F).
func (g *Graph) runScaledClears(device Device, cmd CommandBuffer, pp *PhysicalPass, bound map[PhysicalIndex]interface{}, subpassIndex int) {
	for _, req := range pp.ScaledClearRequests[subpassIndex] {
		target, ok := bound[req.Target]
		if !ok {
			continue
		}
		source, ok := bound[req.Source]
		if !ok {
			continue
		}
		if err := device.ScaledClear(cmd, target, source); err != nil {
			core.LogError("rendergraph: scaled clear: %v", err)
		}
	}
}

// runMipmapRequests issues generate_mipmap for every physical slot this
// physical pass flushed into the mipmap sentinel layout, restoring the
// donor's mipmap_request consumption (4.5, 4.6 step 3).
func (g *Graph) runMipmapRequests(device Device, cmd CommandBuffer, pp *PhysicalPass, bound map[PhysicalIndex]interface{}) {
	for _, phys := range pp.MipmapRequests {
		image, ok := bound[phys]
		if !ok {
			continue
		}
		if err := device.GenerateMipmaps(cmd, image, g.physicalDimensions[phys]); err != nil {
			core.LogError("rendergraph: generate mipmaps: %v", err)
		}
	}
}

// runAliasTransfers consumes pp.AliasTransfer: the physical slot whose
// backing memory is about to be handed to the next slot in its alias
// chain is transitioned to Undefined and its persistent event state reset,
// so the new owner's first invalidate treats it as freshly allocated
// rather than preserving stale content (4.3 "Aliasing", 4.6 step 5).
func (g *Graph) runAliasTransfers(device Device, cmd CommandBuffer, pp *PhysicalPass, bound map[PhysicalIndex]interface{}) {
	for _, pair := range pp.AliasTransfer {
		from := pair[0]
		image, ok := bound[from]
		if !ok {
			continue
		}
		es := &g.eventState[from]
		dim := &g.physicalDimensions[from]
		aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
		if formatHasDepthOrStencil(dim.Format) {
			aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
		}
		barrier := device.BuildImageBarrier(image, es.Layout, vk.ImageLayoutUndefined, es.ToFlushAccess, 0, aspect)
		cmd.PipelineBarrier(vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit), vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), []vk.ImageMemoryBarrier{barrier}, nil)

		g.eventState[from] = PhysicalEventState{Layout: vk.ImageLayoutUndefined}
	}
}

// EnqueueRenderPasses walks every physical pass in schedule order,
// emitting its resolved pre-pass invalidate barriers, bracketing its
// subpasses with begin/next/end render pass and scaled-clear emission,
// issuing generate_mipmap and alias-transfer ownership hand-off, emitting
// post-pass flush barriers, and submitting to the bound queue - pipelined
// across a TaskComposer so one physical pass's CPU-side barrier
// bookkeeping overlaps the previous pass's GPU submission (4.6,
// "enqueue_render_passes").
func (g *Graph) EnqueueRenderPasses(device Device, composer TaskComposer) error {
	bound := g.boundResources
	states := make([]*PassSubmissionState, len(g.physicalPasses))

	for i, pp := range g.physicalPasses {
		state := &PassSubmissionState{active: physicalPassRequiresWork(g, pp)}
		states[i] = state
		if !state.active {
			continue
		}

		queue := g.passes[pp.Passes[0]].Queue

		cmd, err := device.RequestCommandBuffer(queue)
		if err != nil {
			return err
		}
		state.cmd = cmd

		g.emitPreBarriers(device, cmd, pp, bound, state, queue)

		useRenderPass := hasRenderPassAttachments(pp) && (queue == QueueGraphics || queue == QueueAsyncGraphics)
		if useRenderPass {
			colorImages := make([]interface{}, len(pp.PhysicalColorAttachments))
			colorDims := make([]PhysicalDimensions, len(pp.PhysicalColorAttachments))
			for slot, phys := range pp.PhysicalColorAttachments {
				colorImages[slot] = bound[phys]
				colorDims[slot] = g.physicalDimensions[phys]
			}
			var depthImage interface{}
			var depthDims PhysicalDimensions
			if pp.PhysicalDepthStencilAttachment != PhysicalIndexUnused {
				depthImage = bound[pp.PhysicalDepthStencilAttachment]
				depthDims = g.physicalDimensions[pp.PhysicalDepthStencilAttachment]
			}
			clearColors, clearDepth, hasDepthClear := g.collectClearValues(pp)

			if err := device.BeginRenderPass(cmd, RenderPassBeginInfo{
				PhysicalPass:      pp,
				ColorImages:       colorImages,
				ColorDimensions:   colorDims,
				DepthStencilImage: depthImage,
				DepthStencilDims:  depthDims,
				ClearColors:       clearColors,
				ClearDepthStencil: clearDepth,
				HasDepthClear:     hasDepthClear,
			}); err != nil {
				return err
			}
		}

		for subpassIndex, passID := range pp.Passes {
			if useRenderPass && subpassIndex > 0 {
				device.NextSubpass(cmd)
			}
			if useRenderPass {
				g.runScaledClears(device, cmd, pp, bound, subpassIndex)
			}

			pass := g.passes[passID]
			if pass.Callbacks.Prepare != nil {
				pass.Callbacks.Prepare()
			}
			if pass.Callbacks.Build != nil {
				pass.Callbacks.Build(cmd)
			}
		}

		if useRenderPass {
			device.EndRenderPass(cmd)
		}

		g.runMipmapRequests(device, cmd, pp, bound)
		g.runAliasTransfers(device, cmd, pp, bound)

		g.emitPostBarriers(device, cmd, pp, queue, state)
	}

	for i, pp := range g.physicalPasses {
		state := states[i]
		group := composer.BeginPipelineStage()
		if !state.active {
			continue
		}
		queue := g.passes[pp.Passes[0]].Queue
		group.Enqueue(func() {
			if err := state.submit(device, queue); err != nil {
				core.LogError("rendergraph: submit failed: %v", err)
			}
		})
		group.Wait()
	}

	if g.swapchainPhysicalIndex == PhysicalIndexUnused {
		group := composer.BeginPipelineStage()
		group.Enqueue(func() {
			g.enqueueSwapchainScalePass(device)
			device.FlushFrame()
		})
		group.Wait()
	} else {
		group := composer.BeginPipelineStage()
		group.Enqueue(device.FlushFrame)
		group.Wait()
	}

	g.swapHistory()
	return nil
}

// enqueueSwapchainScalePass is the blit-fallback path chosen by
// resolveSwapchainAlias when the backbuffer's physical slot could not be
// aliased directly onto the true swapchain image: the rendered contents
// are blitted across instead (4.6, "Swapchain handling").
func (g *Graph) enqueueSwapchainScalePass(device Device) {
	backbufferID := g.resourceByName[g.backbufferSource]
	phys := g.resources[backbufferID].PhysicalIndex
	core.LogDebug("rendergraph: blitting physical slot %d to swapchain", phys)

	cmd, err := device.RequestCommandBuffer(QueueGraphics)
	if err != nil {
		core.LogError("rendergraph: swapchain scale pass: %v", err)
		return
	}

	cmd.PipelineBarrier(
		vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		[]vk.ImageMemoryBarrier{{
			SType:     vk.StructureTypeImageMemoryBarrier,
			OldLayout: vk.ImageLayoutColorAttachmentOptimal,
			NewLayout: vk.ImageLayoutTransferSrcOptimal,
		}},
		nil,
	)

	if err := device.Submit(QueueGraphics, cmd, nil, nil); err != nil {
		core.LogError("rendergraph: swapchain scale pass submit: %v", err)
	}
}
