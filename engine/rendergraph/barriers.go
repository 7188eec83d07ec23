package rendergraph

import (
	vk "github.com/goki/vulkan"
)

// passBarrierSet holds one scheduled pass's required invalidate/flush
// barriers, keyed implicitly by (resource, history) pairs the way the
// donor keys its Barriers::invalidate / Barriers::flush vectors (4.5).
type passBarrierSet struct {
	Invalidate []Barrier
	Flush      []Barrier
}

func findOrAddBarrier(list *[]Barrier, resource ResourceID, history bool) *Barrier {
	for i := range *list {
		if (*list)[i].Resource == resource && (*list)[i].History == history {
			return &(*list)[i]
		}
	}
	*list = append(*list, Barrier{Resource: resource, Layout: vk.ImageLayoutUndefined, History: history})
	return &(*list)[len(*list)-1]
}

func setLayout(b *Barrier, layout vk.ImageLayout) {
	if b.Layout == vk.ImageLayoutShaderReadOnlyOptimal &&
		(layout == vk.ImageLayoutGeneral || layout == vk.ImageLayoutColorAttachmentOptimal) {
		b.Layout = vk.ImageLayoutGeneral
	} else if b.Layout == vk.ImageLayoutGeneral && layout == vk.ImageLayoutColorAttachmentOptimal {
		// Already General from programmable blending; keep it.
	} else {
		b.Layout = layout
	}
}

// buildBarriers walks every scheduled pass and derives the invalidate
// (read-before) and flush (write-after) access/stage/layout requirements
// for each resource it touches, per input/output kind, matching the access
// table in 4.5.
func buildBarriers(g *Graph) error {
	g.passBarriers = make([]passBarrierSet, len(g.scheduled))

	for idx, passID := range g.scheduled {
		pass := g.passes[passID]
		set := &g.passBarriers[idx]
		compute := pass.Queue == QueueCompute

		invalidate := func(resource ResourceID, access vk.AccessFlags, stage vk.PipelineStageFlags, layout vk.ImageLayout, history bool) {
			b := findOrAddBarrier(&set.Invalidate, resource, history)
			b.AccessMask |= access
			b.StageMask |= stage
			setLayout(b, layout)
			b.Resource, b.History = resource, history
		}
		flush := func(resource ResourceID, access vk.AccessFlags, stage vk.PipelineStageFlags, layout vk.ImageLayout) {
			b := findOrAddBarrier(&set.Flush, resource, false)
			b.AccessMask |= access
			b.StageMask |= stage
			setLayout(b, layout)
		}

		for _, in := range pass.GenericBufferInputs {
			invalidate(in.Resource, in.Access, in.Stages, vk.ImageLayoutUndefined, false)
		}
		for _, in := range pass.GenericTextureInputs {
			layout := vk.ImageLayoutShaderReadOnlyOptimal
			invalidate(in.Resource, vk.AccessFlags(vk.AccessShaderReadBit), in.Stages, layout, false)
		}
		for _, in := range pass.HistoryInputs {
			stage := vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
			if compute {
				stage = vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)
			}
			invalidate(in, vk.AccessFlags(vk.AccessShaderReadBit), stage, vk.ImageLayoutShaderReadOnlyOptimal, true)
		}
		for _, in := range pass.AttachmentInputs {
			invalidate(in, vk.AccessFlags(vk.AccessInputAttachmentReadBit),
				vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit), vk.ImageLayoutShaderReadOnlyOptimal, false)
		}
		for _, in := range pass.StorageInputs {
			if in == ResourceNone {
				continue
			}
			stage := vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
			if compute {
				stage = vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)
			}
			invalidate(in, vk.AccessFlags(vk.AccessShaderReadBit|vk.AccessShaderWriteBit), stage, vk.ImageLayoutGeneral, false)
		}
		for _, in := range pass.StorageTextureInputs {
			if in == ResourceNone {
				continue
			}
			stage := vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
			if compute {
				stage = vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)
			}
			invalidate(in, vk.AccessFlags(vk.AccessShaderReadBit|vk.AccessShaderWriteBit), stage, vk.ImageLayoutGeneral, false)
		}
		for _, in := range pass.BlitTextureInputs {
			if in == ResourceNone {
				continue
			}
			invalidate(in, vk.AccessFlags(vk.AccessTransferWriteBit),
				vk.PipelineStageFlags(vk.PipelineStageTransferBit), vk.ImageLayoutTransferDstOptimal, false)
		}
		for _, in := range pass.ColorInputs {
			if in == ResourceNone {
				continue
			}
			layout := vk.ImageLayoutColorAttachmentOptimal
			b := findOrAddBarrier(&set.Invalidate, in, false)
			if b.Layout == vk.ImageLayoutShaderReadOnlyOptimal {
				layout = vk.ImageLayoutGeneral
			}
			invalidate(in, vk.AccessFlags(vk.AccessColorAttachmentWriteBit|vk.AccessColorAttachmentReadBit),
				vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit), layout, false)
		}
		for _, in := range pass.ColorScaleInputs {
			if in == ResourceNone {
				continue
			}
			invalidate(in, vk.AccessFlags(vk.AccessShaderReadBit),
				vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit), vk.ImageLayoutShaderReadOnlyOptimal, false)
		}

		for _, out := range pass.ColorOutputs {
			if g.physicalDimensions[g.resources[out].PhysicalIndex].Levels > 1 {
				flush(out, vk.AccessFlags(vk.AccessTransferReadBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit), vk.ImageLayoutTransferSrcOptimal)
				pp := g.physicalPasses[pass.PhysicalPassIndex]
				addUniquePhysical(&pp.MipmapRequests, g.resources[out].PhysicalIndex)
				continue
			}
			layout := vk.ImageLayoutColorAttachmentOptimal
			b := findOrAddBarrier(&set.Flush, out, false)
			if b.Layout == vk.ImageLayoutShaderReadOnlyOptimal || b.Layout == vk.ImageLayoutGeneral {
				layout = vk.ImageLayoutGeneral
			}
			flush(out, vk.AccessFlags(vk.AccessColorAttachmentWriteBit), vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit), layout)
		}
		for _, out := range pass.ResolveOutputs {
			flush(out, vk.AccessFlags(vk.AccessColorAttachmentWriteBit), vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit), vk.ImageLayoutColorAttachmentOptimal)
		}
		for _, out := range pass.BlitTextureOutputs {
			invalidate(out, vk.AccessFlags(vk.AccessTransferWriteBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit), vk.ImageLayoutTransferDstOptimal, false)
		}
		for _, out := range pass.StorageOutputs {
			stage := vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
			if compute {
				stage = vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)
			}
			flush(out, vk.AccessFlags(vk.AccessShaderWriteBit), stage, vk.ImageLayoutGeneral)
		}
		for _, out := range pass.TransferOutputs {
			flush(out, vk.AccessFlags(vk.AccessTransferWriteBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit), vk.ImageLayoutGeneral)
		}
		for _, out := range pass.StorageTextureOutputs {
			if out == ResourceNone {
				continue
			}
			stage := vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
			if compute {
				stage = vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)
			}
			flush(out, vk.AccessFlags(vk.AccessShaderWriteBit), stage, vk.ImageLayoutGeneral)
		}

		output, input := pass.DepthStencilOutput, pass.DepthStencilInput
		switch {
		case output != ResourceNone && input != ResourceNone:
			invalidate(input, vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit|vk.AccessDepthStencilAttachmentWriteBit),
				vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit|vk.PipelineStageLateFragmentTestsBit),
				vk.ImageLayoutDepthStencilAttachmentOptimal, false)
			flush(output, vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
				vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit), vk.ImageLayoutDepthStencilAttachmentOptimal)
		case input != ResourceNone:
			layout := vk.ImageLayoutDepthStencilReadOnlyOptimal
			invalidate(input, vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit),
				vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit|vk.PipelineStageLateFragmentTestsBit), layout, false)
		case output != ResourceNone:
			flush(output, vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
				vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit|vk.PipelineStageLateFragmentTestsBit), vk.ImageLayoutDepthStencilAttachmentOptimal)
		}
	}

	return nil
}

// buildPhysicalBarriers folds the per-scheduled-pass barriers down to
// physical-pass boundaries: only the first use within a physical pass needs
// an externally-visible invalidate, and only the last use needs an
// externally-visible flush. Transient and swapchain-aliased slots are
// handled implicitly by the render pass itself and are skipped (4.5).
func buildPhysicalBarriers(g *Graph) {
	type resourceState struct {
		initialLayout, finalLayout vk.ImageLayout
		invalidatedTypes           vk.AccessFlags
		invalidatedStages          vk.PipelineStageFlags
		flushedTypes               vk.AccessFlags
		flushedStages              vk.PipelineStageFlags
	}

	barrierCursor := 0

	for _, pp := range g.physicalPasses {
		state := make([]resourceState, len(g.physicalDimensions))

		for range pp.Passes {
			set := g.passBarriers[barrierCursor]
			barrierCursor++

			for _, inv := range set.Invalidate {
				phys := resolvePhysical(g, inv.Resource)
				if phys == PhysicalIndexUnused {
					continue
				}
				if g.physicalDimensions[phys].Transient || phys == g.swapchainPhysicalIndex {
					continue
				}

				if inv.History {
					if !hasHistoryBarrier(pp.Invalidate, phys) {
						layout := inv.Layout
						if isStorageImage(&g.physicalDimensions[phys]) {
							layout = vk.ImageLayoutGeneral
						}
						pp.Invalidate = append(pp.Invalidate, Barrier{Resource: inv.Resource, Physical: phys, Layout: layout, AccessMask: inv.AccessMask, StageMask: inv.StageMask, History: true})
						pp.Flush = append(pp.Flush, Barrier{Resource: inv.Resource, Physical: phys, Layout: layout, StageMask: inv.StageMask, History: true})
					}
					continue
				}

				res := &state[phys]
				if res.initialLayout == vk.ImageLayoutUndefined {
					res.invalidatedTypes |= inv.AccessMask
					res.invalidatedStages |= inv.StageMask
					if isStorageImage(&g.physicalDimensions[phys]) {
						res.initialLayout = vk.ImageLayoutGeneral
					} else {
						res.initialLayout = inv.Layout
					}
				}
				if isStorageImage(&g.physicalDimensions[phys]) {
					res.finalLayout = vk.ImageLayoutGeneral
				} else {
					res.finalLayout = inv.Layout
				}
				res.flushedTypes = 0
				res.flushedStages = 0
			}

			for _, fl := range set.Flush {
				phys := resolvePhysical(g, fl.Resource)
				if phys == PhysicalIndexUnused {
					continue
				}
				if g.physicalDimensions[phys].Transient || phys == g.swapchainPhysicalIndex {
					continue
				}

				res := &state[phys]
				res.flushedTypes |= fl.AccessMask
				res.flushedStages |= fl.StageMask
				if isStorageImage(&g.physicalDimensions[phys]) {
					res.finalLayout = vk.ImageLayoutGeneral
				} else {
					res.finalLayout = fl.Layout
				}

				if res.initialLayout == vk.ImageLayoutUndefined {
					if fl.Layout == vk.ImageLayoutTransferSrcOptimal {
						res.initialLayout = vk.ImageLayoutColorAttachmentOptimal
						res.invalidatedStages = vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
						res.invalidatedTypes = vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessColorAttachmentReadBit)
					} else {
						res.initialLayout = fl.Layout
						res.invalidatedStages = fl.StageMask
						res.invalidatedTypes = flushAccessToInvalidate(fl.AccessMask)
					}
					pp.Discards = append(pp.Discards, phys)
				}
			}
		}

		for phys := range state {
			res := &state[phys]
			if res.initialLayout == vk.ImageLayoutUndefined && res.finalLayout == vk.ImageLayoutUndefined {
				continue
			}
			if res.invalidatedTypes != 0 || res.invalidatedStages != 0 {
				pp.Invalidate = append(pp.Invalidate, Barrier{
					Physical: PhysicalIndex(phys), Layout: res.initialLayout,
					AccessMask: res.invalidatedTypes, StageMask: res.invalidatedStages,
				})
			}
			if res.flushedTypes != 0 || res.flushedStages != 0 {
				pp.Flush = append(pp.Flush, Barrier{
					Physical: PhysicalIndex(phys), Layout: res.finalLayout,
					AccessMask: res.flushedTypes, StageMask: res.flushedStages,
				})
			}
		}
	}
}

func resolvePhysical(g *Graph, resource ResourceID) PhysicalIndex {
	if resource == ResourceNone {
		return PhysicalIndexUnused
	}
	return g.resources[resource].PhysicalIndex
}

func isStorageImage(dim *PhysicalDimensions) bool {
	return dim.ImageUsage&vk.ImageUsageFlags(vk.ImageUsageStorageBit) != 0
}

func flushAccessToInvalidate(access vk.AccessFlags) vk.AccessFlags {
	if access&vk.AccessFlags(vk.AccessColorAttachmentWriteBit) != 0 {
		access |= vk.AccessFlags(vk.AccessColorAttachmentReadBit)
	}
	if access&vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit) != 0 {
		access |= vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit)
	}
	if access&vk.AccessFlags(vk.AccessShaderWriteBit) != 0 {
		access |= vk.AccessFlags(vk.AccessShaderReadBit)
	}
	return access
}

func hasHistoryBarrier(list []Barrier, phys PhysicalIndex) bool {
	for _, b := range list {
		if b.Physical == phys && b.History {
			return true
		}
	}
	return false
}
