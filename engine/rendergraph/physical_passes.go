package rendergraph

// DepthStencilMode classifies how a subpass touches the physical pass's
// depth/stencil attachment, per 4.4's render_pass_info depth semantics.
type DepthStencilMode int

const (
	DepthStencilNone DepthStencilMode = iota
	DepthStencilReadOnly
	DepthStencilReadWrite
)

// SubpassInfo is one subpass's attachment references within the physical
// pass's VkRenderPass, restoring the donor's RenderPassInfo::Subpass table
// (4.4). Color/Resolve/Input entries hold PhysicalIndex values; an entry
// equal to PhysicalIndexUnused means "unused" at that attachment slot.
type SubpassInfo struct {
	ColorAttachments   []PhysicalIndex
	ResolveAttachments []PhysicalIndex
	InputAttachments   []PhysicalIndex
	DepthStencil       DepthStencilMode
}

// ScaledClearRequest records a subpass's request to seed an attachment with
// a scaled blit of another physical slot's contents instead of a flat clear
// color, restoring the donor's scaled_clear_request (4.4, Scenario F).
type ScaledClearRequest struct {
	Target PhysicalIndex
	Source PhysicalIndex
}

// PhysicalPass is a group of one or more scheduled passes fused into a
// single tile-based render pass with multiple subpasses (4.4, "Physical
// Pass Planner"). Compute/transfer passes are never merged and always form
// a physical pass of one.
type PhysicalPass struct {
	Passes []PassID

	// PhysicalColorAttachments / PhysicalDepthStencilAttachment are the
	// dedup'd physical slots touched across every subpass, used by the
	// Device to build the VkRenderPass attachment list.
	PhysicalColorAttachments       []PhysicalIndex
	PhysicalDepthStencilAttachment PhysicalIndex

	// Subpasses holds one entry per scheduled pass folded into this
	// physical pass, in the same order as Passes, carrying the per-subpass
	// attachment reference tables the Device needs to build
	// VkSubpassDescription (4.4).
	Subpasses []SubpassInfo

	// ClearAttachments / LoadAttachments / StoreAttachments are bitmasks
	// indexed by position within PhysicalColorAttachments, deciding each
	// color attachment's VkAttachmentLoadOp/VkAttachmentStoreOp (4.4).
	ClearAttachments uint32
	LoadAttachments  uint32
	StoreAttachments uint32

	// ClearDepthStencil / LoadDepthStencil / StoreDepthStencil are the same
	// decision for PhysicalDepthStencilAttachment, kept separate since a
	// depth/stencil attachment is not indexed into PhysicalColorAttachments.
	ClearDepthStencil bool
	LoadDepthStencil  bool
	StoreDepthStencil bool

	// ScaledClearRequests maps a subpass index (position within Passes /
	// Subpasses) to the scaled-clear requests that subpass must service
	// before its Build callback runs (4.4, Scenario F).
	ScaledClearRequests map[int][]ScaledClearRequest

	// MipmapRequests lists physical slots whose last write in this physical
	// pass must be followed by a mip chain generation pass, pushed by
	// buildBarriers wherever a color output's declared Levels > 1 (4.5,
	// "mipmap_request"; 4.6 step 3, "generate_mipmap").
	MipmapRequests []PhysicalIndex

	// Invalidate / Flush are the barriers that must be applied externally,
	// i.e. at entry/exit of this physical pass, after intra-pass barriers
	// have been folded away by buildPhysicalBarriers (4.5).
	Invalidate []Barrier
	Flush      []Barrier

	// Discards lists physical slots whose first use in this pass is a
	// flush with no matching invalidate, so the Device may transition from
	// UNDEFINED rather than preserve prior contents.
	Discards []PhysicalIndex

	// AliasTransfer lists (from, to) physical slot pairs whose ownership
	// transfers at the end of this physical pass, produced by buildAliases.
	AliasTransfer [][2]PhysicalIndex
}

// isDiscarded reports whether phys is listed in pp.Discards.
func (pp *PhysicalPass) isDiscarded(phys PhysicalIndex) bool {
	for _, d := range pp.Discards {
		if d == phys {
			return true
		}
	}
	return false
}

// colorAttachmentSlot returns phys's position within PhysicalColorAttachments,
// or -1 if phys is not one of this physical pass's color attachments.
func (pp *PhysicalPass) colorAttachmentSlot(phys PhysicalIndex) int {
	for i, p := range pp.PhysicalColorAttachments {
		if p == phys {
			return i
		}
	}
	return -1
}

// buildPhysicalPasses greedily fuses adjacent scheduled passes into
// physical passes wherever shouldMerge holds for every pair already in the
// run, matching the donor's subpass-merge heuristic for tile-based GPUs
// (4.4).
func buildPhysicalPasses(g *Graph) error {
	g.physicalPasses = nil

	for index := 0; index < len(g.scheduled); {
		mergeEnd := index + 1
		for mergeEnd < len(g.scheduled) {
			merge := true
			for start := index; start < mergeEnd; start++ {
				if !shouldMerge(g, g.passes[g.scheduled[start]], g.passes[g.scheduled[mergeEnd]]) {
					merge = false
					break
				}
			}
			if !merge {
				break
			}
			mergeEnd++
		}

		pp := &PhysicalPass{Passes: append([]PassID(nil), g.scheduled[index:mergeEnd]...)}
		g.physicalPasses = append(g.physicalPasses, pp)
		index = mergeEnd
	}

	for i, pp := range g.physicalPasses {
		pp.PhysicalDepthStencilAttachment = PhysicalIndexUnused
		pp.ScaledClearRequests = make(map[int][]ScaledClearRequest)

		for _, passID := range pp.Passes {
			g.passes[passID].PhysicalPassIndex = i
			pass := g.passes[passID]

			for _, out := range pass.ColorOutputs {
				addUniquePhysical(&pp.PhysicalColorAttachments, g.resources[out].PhysicalIndex)
			}
			if pass.DepthStencilOutput != ResourceNone {
				pp.PhysicalDepthStencilAttachment = g.resources[pass.DepthStencilOutput].PhysicalIndex
			} else if pass.DepthStencilInput != ResourceNone {
				pp.PhysicalDepthStencilAttachment = g.resources[pass.DepthStencilInput].PhysicalIndex
			}
		}

		for subpassIndex, passID := range pp.Passes {
			pass := g.passes[passID]

			depthStencil := DepthStencilNone
			switch {
			case pass.DepthStencilOutput != ResourceNone:
				depthStencil = DepthStencilReadWrite
			case pass.DepthStencilInput != ResourceNone:
				depthStencil = DepthStencilReadOnly
			}

			pp.Subpasses = append(pp.Subpasses, SubpassInfo{
				ColorAttachments:   physicalIndicesOf(g, pass.ColorOutputs),
				ResolveAttachments: physicalIndicesOf(g, pass.ResolveOutputs),
				InputAttachments:   physicalIndicesOf(g, pass.AttachmentInputs),
				DepthStencil:       depthStencil,
			})

			for i, scaleIn := range pass.ColorScaleInputs {
				if scaleIn == ResourceNone {
					continue
				}
				pp.ScaledClearRequests[subpassIndex] = append(pp.ScaledClearRequests[subpassIndex], ScaledClearRequest{
					Target: g.resources[pass.ColorOutputs[i]].PhysicalIndex,
					Source: g.resources[scaleIn].PhysicalIndex,
				})
			}
		}
	}

	return nil
}

// physicalIndicesOf resolves a slice of logical resource IDs to their
// physical slots, preserving ResourceNone as PhysicalIndexUnused so unused
// attachment slots remain addressable by position.
func physicalIndicesOf(g *Graph, resources []ResourceID) []PhysicalIndex {
	if len(resources) == 0 {
		return nil
	}
	out := make([]PhysicalIndex, len(resources))
	for i, r := range resources {
		if r == ResourceNone {
			out[i] = PhysicalIndexUnused
			continue
		}
		out[i] = g.resources[r].PhysicalIndex
	}
	return out
}

func addUniquePhysical(list *[]PhysicalIndex, p PhysicalIndex) {
	for _, existing := range *list {
		if existing == p {
			return
		}
	}
	*list = append(*list, p)
}

// buildAttachmentOps decides each physical pass's color/depth
// VkAttachmentLoadOp/VkAttachmentStoreOp bitmasks, restoring the donor's
// render_pass_info clear_attachments / load_attachments / store_attachments
// computation (4.4). It runs after buildPhysicalBarriers so Discards and
// the folded Flush list are available.
func buildAttachmentOps(g *Graph) {
	for _, pp := range g.physicalPasses {
		for slot, phys := range pp.PhysicalColorAttachments {
			discarded := pp.isDiscarded(phys)

			wantsClear := false
			for _, passID := range pp.Passes {
				pass := g.passes[passID]
				for i, out := range pass.ColorOutputs {
					if g.resources[out].PhysicalIndex != phys {
						continue
					}
					if pass.Callbacks.GetClearColor != nil {
						if _, ok := pass.Callbacks.GetClearColor(i); ok {
							wantsClear = true
						}
					}
				}
			}

			if discarded {
				if wantsClear {
					pp.ClearAttachments |= 1 << uint(slot)
				}
			} else {
				pp.LoadAttachments |= 1 << uint(slot)
			}

			if !g.physicalDimensions[phys].Transient || hasFlush(pp.Flush, phys) {
				pp.StoreAttachments |= 1 << uint(slot)
			}
		}

		if pp.PhysicalDepthStencilAttachment == PhysicalIndexUnused {
			continue
		}
		phys := pp.PhysicalDepthStencilAttachment
		discarded := pp.isDiscarded(phys)

		wantsClear := false
		for _, passID := range pp.Passes {
			pass := g.passes[passID]
			if pass.DepthStencilOutput == ResourceNone || pass.Callbacks.GetClearDepthStencil == nil {
				continue
			}
			if _, ok := pass.Callbacks.GetClearDepthStencil(); ok {
				wantsClear = true
			}
		}

		if discarded {
			pp.ClearDepthStencil = wantsClear
		} else {
			pp.LoadDepthStencil = true
		}
		pp.StoreDepthStencil = !g.physicalDimensions[phys].Transient || hasFlush(pp.Flush, phys)
	}
}

func hasFlush(list []Barrier, phys PhysicalIndex) bool {
	for _, b := range list {
		if b.Physical == phys {
			return true
		}
	}
	return false
}

// shouldMerge decides whether next may be fused into the same physical
// pass as prev: same graphics queue, no non-local (cross-tile) dependency
// between them, and - once those hold - some actual benefit (keeping
// color/depth on tile) to merging at all (4.4).
func shouldMerge(g *Graph, prev, next *Pass) bool {
	if prev.Queue != QueueGraphics && prev.Queue != QueueAsyncGraphics {
		return false
	}
	if next.Queue != prev.Queue {
		return false
	}
	if !g.quirks.MergeSubpasses {
		return false
	}

	for _, out := range prev.ColorOutputs {
		if g.physicalDimensions[g.resources[out].PhysicalIndex].Levels > 1 {
			return false
		}
	}

	findPhysical := func(list []ResourceID, resource ResourceID) bool {
		if resource == ResourceNone {
			return false
		}
		target := g.resources[resource].PhysicalIndex
		for _, r := range list {
			if r == ResourceNone {
				continue
			}
			if g.resources[r].PhysicalIndex == target {
				return true
			}
		}
		return false
	}

	for _, in := range next.GenericTextureInputs {
		if findPhysical(prev.ColorOutputs, in.Resource) {
			return false
		}
		if findPhysical(prev.ResolveOutputs, in.Resource) {
			return false
		}
		if findPhysical(prev.StorageTextureOutputs, in.Resource) {
			return false
		}
		if findPhysical(prev.BlitTextureOutputs, in.Resource) {
			return false
		}
		if in.Resource != ResourceNone && prev.DepthStencilOutput == in.Resource {
			return false
		}
	}

	for _, in := range next.GenericBufferInputs {
		if findPhysical(prev.StorageOutputs, in.Resource) {
			return false
		}
	}
	for _, in := range next.BlitTextureInputs {
		if findPhysical(prev.BlitTextureInputs, in) {
			return false
		}
	}
	for _, in := range next.StorageInputs {
		if findPhysical(prev.StorageOutputs, in) {
			return false
		}
	}
	for _, in := range next.StorageTextureInputs {
		if findPhysical(prev.StorageTextureOutputs, in) {
			return false
		}
	}
	for _, in := range next.ColorScaleInputs {
		if findPhysical(prev.StorageTextureOutputs, in) {
			return false
		}
		if findPhysical(prev.BlitTextureOutputs, in) {
			return false
		}
		if findPhysical(prev.ColorOutputs, in) {
			return false
		}
		if findPhysical(prev.ResolveOutputs, in) {
			return false
		}
	}

	differentAttachment := func(a, b ResourceID) bool {
		if a == ResourceNone || b == ResourceNone {
			return false
		}
		return g.resources[a].PhysicalIndex != g.resources[b].PhysicalIndex
	}
	sameAttachment := func(a, b ResourceID) bool {
		if a == ResourceNone || b == ResourceNone {
			return false
		}
		return g.resources[a].PhysicalIndex == g.resources[b].PhysicalIndex
	}

	if differentAttachment(next.DepthStencilInput, prev.DepthStencilInput) {
		return false
	}
	if differentAttachment(next.DepthStencilOutput, prev.DepthStencilInput) {
		return false
	}
	if differentAttachment(next.DepthStencilInput, prev.DepthStencilOutput) {
		return false
	}
	if differentAttachment(next.DepthStencilOutput, prev.DepthStencilOutput) {
		return false
	}

	for _, in := range next.ColorInputs {
		if in == ResourceNone {
			continue
		}
		if findPhysical(prev.StorageTextureOutputs, in) {
			return false
		}
		if findPhysical(prev.BlitTextureOutputs, in) {
			return false
		}
	}

	// All failure cases excluded; now look for a reason to actually merge.

	for _, in := range next.ColorInputs {
		if in == ResourceNone {
			continue
		}
		if findPhysical(prev.ColorOutputs, in) {
			return true
		}
		if findPhysical(prev.ResolveOutputs, in) {
			return true
		}
	}

	if sameAttachment(next.DepthStencilInput, prev.DepthStencilInput) ||
		sameAttachment(next.DepthStencilInput, prev.DepthStencilOutput) {
		return true
	}

	for _, in := range next.AttachmentInputs {
		if findPhysical(prev.ColorOutputs, in) {
			return true
		}
		if findPhysical(prev.ResolveOutputs, in) {
			return true
		}
		if in != ResourceNone && prev.DepthStencilOutput == in {
			return true
		}
	}

	return false
}
