package rendergraph

import (
	vk "github.com/goki/vulkan"

	"github.com/hollowengine/rendergraph/engine/core"
)

// buildPhysicalResources walks the scheduled pass order and assigns every
// logical resource touched a physical slot, merging read-modify-write pairs
// onto the same slot and accumulating queue/usage bits when a slot is
// revisited (4.3). Input attachments are assigned last so they can alias
// onto a color/depth attachment already claimed earlier in the same pass.
func buildPhysicalResources(g *Graph) error {
	g.physicalDimensions = nil

	assign := func(res *Resource) error {
		if res.PhysicalIndex == PhysicalIndexUnused {
			res.PhysicalIndex = PhysicalIndex(len(g.physicalDimensions))
			g.physicalDimensions = append(g.physicalDimensions, resourceDimensions(res))
		} else {
			dim := &g.physicalDimensions[res.PhysicalIndex]
			dim.Queues |= res.UsedQueues
			dim.ImageUsage |= res.ImageUsage
			dim.BufferUsage |= res.BufferUsage
		}
		return nil
	}

	claim := func(output *Resource, physical PhysicalIndex) error {
		if output.PhysicalIndex == PhysicalIndexUnused {
			output.PhysicalIndex = physical
		} else if output.PhysicalIndex != physical {
			return newGraphError(ErrPhysicalIndex, "", output.Name, "cannot alias resources, index already claimed")
		}
		return nil
	}

	for _, passID := range g.scheduled {
		pass := g.passes[passID]

		for _, in := range pass.GenericTextureInputs {
			if err := assign(g.resources[in.Resource]); err != nil {
				return err
			}
		}
		for _, in := range pass.GenericBufferInputs {
			if err := assign(g.resources[in.Resource]); err != nil {
				return err
			}
		}
		for _, in := range pass.ColorScaleInputs {
			if in == ResourceNone {
				continue
			}
			res := g.resources[in]
			first := res.PhysicalIndex == PhysicalIndexUnused
			if err := assign(res); err != nil {
				return err
			}
			if first {
				g.physicalDimensions[res.PhysicalIndex].ImageUsage |= vk.ImageUsageFlags(vk.ImageUsageSampledBit)
			}
		}

		for i, in := range pass.ColorInputs {
			if in == ResourceNone {
				continue
			}
			res := g.resources[in]
			if err := assign(res); err != nil {
				return err
			}
			if err := claim(g.resources[pass.ColorOutputs[i]], res.PhysicalIndex); err != nil {
				return err
			}
		}

		for i, in := range pass.StorageInputs {
			if in == ResourceNone {
				continue
			}
			res := g.resources[in]
			if err := assign(res); err != nil {
				return err
			}
			if err := claim(g.resources[pass.StorageOutputs[i]], res.PhysicalIndex); err != nil {
				return err
			}
		}

		for i, in := range pass.BlitTextureInputs {
			if in == ResourceNone {
				continue
			}
			res := g.resources[in]
			if err := assign(res); err != nil {
				return err
			}
			if err := claim(g.resources[pass.BlitTextureOutputs[i]], res.PhysicalIndex); err != nil {
				return err
			}
		}

		for i, in := range pass.StorageTextureInputs {
			if in == ResourceNone {
				continue
			}
			res := g.resources[in]
			if err := assign(res); err != nil {
				return err
			}
			if out := pass.StorageTextureOutputs[i]; out != ResourceNone {
				if err := claim(g.resources[out], res.PhysicalIndex); err != nil {
					return err
				}
			}
		}

		for _, out := range pass.ColorOutputs {
			if err := assign(g.resources[out]); err != nil {
				return err
			}
		}
		for _, out := range pass.ResolveOutputs {
			if err := assign(g.resources[out]); err != nil {
				return err
			}
		}
		for _, out := range pass.StorageOutputs {
			if err := assign(g.resources[out]); err != nil {
				return err
			}
		}
		for _, out := range pass.TransferOutputs {
			if err := assign(g.resources[out]); err != nil {
				return err
			}
		}
		for _, out := range pass.BlitTextureOutputs {
			if err := assign(g.resources[out]); err != nil {
				return err
			}
		}
		for _, out := range pass.StorageTextureOutputs {
			if out == ResourceNone {
				continue
			}
			if err := assign(g.resources[out]); err != nil {
				return err
			}
		}

		if pass.DepthStencilInput != ResourceNone {
			dsIn := g.resources[pass.DepthStencilInput]
			if err := assign(dsIn); err != nil {
				return err
			}
			if pass.DepthStencilOutput != ResourceNone {
				if err := claim(g.resources[pass.DepthStencilOutput], dsIn.PhysicalIndex); err != nil {
					return err
				}
				if err := assign(g.resources[pass.DepthStencilOutput]); err != nil {
					return err
				}
			}
		} else if pass.DepthStencilOutput != ResourceNone {
			if err := assign(g.resources[pass.DepthStencilOutput]); err != nil {
				return err
			}
		}

		// Assigned last so they can alias onto a color/depth attachment
		// already claimed earlier in this same pass.
		for _, in := range pass.AttachmentInputs {
			if err := assign(g.resources[in]); err != nil {
				return err
			}
		}

		for _, alias := range pass.FakeAliases {
			g.resources[alias.To].PhysicalIndex = g.resources[alias.From].PhysicalIndex
		}
	}

	// A history input whose writer exists in the graph but was pruned from
	// the schedule still gets a physical slot; a history input with no
	// writer at all is rejected below.
	for _, passID := range g.scheduled {
		for _, in := range g.passes[passID].HistoryInputs {
			if res := g.resources[in]; res.PhysicalIndex == PhysicalIndexUnused && res.hasWriter() {
				if err := assign(res); err != nil {
					return err
				}
			}
		}
	}

	g.physicalImageHasHistory = make([]bool, len(g.physicalDimensions))
	for _, passID := range g.scheduled {
		for _, in := range g.passes[passID].HistoryInputs {
			phys := g.resources[in].PhysicalIndex
			if phys == PhysicalIndexUnused {
				return newGraphError(ErrDanglingDependency, g.passes[passID].Name, g.resources[in].Name, "history input was never written to")
			}
			g.physicalImageHasHistory[phys] = true
		}
	}
	for phys, hasHistory := range g.physicalImageHasHistory {
		g.physicalDimensions[phys].HasHistory = hasHistory
	}

	return nil
}

// resourceDimensions materialises a Resource's declared shape into a
// physical slot description, resolving swapchain-relative and
// input-relative sizes against the graph's backbuffer dimensions.
func resourceDimensions(res *Resource) PhysicalDimensions {
	if res.Kind == ResourceBuffer {
		buf := res.BufferInfo
		return PhysicalDimensions{
			Buffer:      &buf,
			Queues:      res.UsedQueues,
			BufferUsage: res.BufferUsage,
			Persistent:  res.BufferInfo.Persistent,
			Name:        res.Name,
		}
	}

	return PhysicalDimensions{
		AttachmentInfo: res.Attachment,
		Queues:         res.UsedQueues,
		ImageUsage:     res.ImageUsage,
		Persistent:     res.Attachment.Persistent,
		Name:           res.Name,
	}
}

// buildTransients marks every physical image slot that is touched from
// exactly one physical pass as transient, so the Device may back it with
// lazily-allocated tile memory instead of a full allocation (4.3). Buffers,
// slots with history, and depth/color attachments the Quirks disable are
// excluded.
func buildTransients(g *Graph) {
	physicalPassUsed := make([]int, len(g.physicalDimensions))
	for i := range physicalPassUsed {
		physicalPassUsed[i] = -1
	}

	for i := range g.physicalDimensions {
		dim := &g.physicalDimensions[i]
		if dim.IsBuffer() {
			dim.Transient = false
			continue
		}
		dim.Transient = true

		if g.physicalImageHasHistory[i] {
			dim.Transient = false
		}
		if formatHasDepthOrStencil(dim.Format) && !g.quirks.UseTransientDepth {
			dim.Transient = false
		}
		if !formatHasDepthOrStencil(dim.Format) && !g.quirks.UseTransientColor {
			dim.Transient = false
		}
	}

	markTouch := func(physIndex PhysicalIndex, passID PassID) {
		phys := g.passes[passID].PhysicalPassIndex
		if physicalPassUsed[physIndex] != -1 && physicalPassUsed[physIndex] != phys {
			g.physicalDimensions[physIndex].Transient = false
			return
		}
		physicalPassUsed[physIndex] = phys
	}

	for _, res := range g.resources {
		if res.Kind != ResourceTexture || res.PhysicalIndex == PhysicalIndexUnused {
			continue
		}
		for passID := range res.WrittenInPasses {
			markTouch(res.PhysicalIndex, passID)
		}
		for passID := range res.ReadInPasses {
			markTouch(res.PhysicalIndex, passID)
		}
	}
}

func formatHasDepthOrStencil(format vk.Format) bool {
	switch format {
	case vk.FormatD16Unorm, vk.FormatD16UnormS8Uint, vk.FormatD24UnormS8Uint,
		vk.FormatD32Sfloat, vk.FormatD32SfloatS8Uint, vk.FormatX8D24UnormPack32, vk.FormatS8Uint:
		return true
	default:
		return false
	}
}

// physicalRange tracks the first/last scheduled pass a physical slot is
// read/written in, mirroring the donor's Range helper used to decide
// whether two non-overlapping slots may alias (4.3, "Aliasing").
type physicalRange struct {
	firstWrite, lastWrite int
	firstRead, lastRead   int
	blockAlias            bool
}

func newPhysicalRange() physicalRange {
	return physicalRange{firstWrite: -1, lastWrite: -1, firstRead: -1, lastRead: -1}
}

func (r *physicalRange) hasWriter() bool { return r.firstWrite != -1 }
func (r *physicalRange) hasReader() bool { return r.firstRead != -1 }
func (r *physicalRange) isUsed() bool    { return r.hasWriter() || r.hasReader() }

func (r *physicalRange) canAlias() bool {
	if r.hasReader() && r.hasWriter() && r.firstRead <= r.firstWrite {
		return false
	}
	return !r.blockAlias
}

func (r *physicalRange) firstUsed() int {
	first := int(^uint(0) >> 1)
	if r.hasWriter() && r.firstWrite < first {
		first = r.firstWrite
	}
	if r.hasReader() && r.firstRead < first {
		first = r.firstRead
	}
	return first
}

func (r *physicalRange) lastUsed() int {
	last := 0
	if r.hasWriter() && r.lastWrite > last {
		last = r.lastWrite
	}
	if r.hasReader() && r.lastRead > last {
		last = r.lastRead
	}
	return last
}

func (r *physicalRange) disjoint(other *physicalRange) bool {
	if !r.isUsed() || !other.isUsed() {
		return false
	}
	if !r.canAlias() || !other.canAlias() {
		return false
	}
	return r.lastUsed() < other.firstUsed() || other.lastUsed() < r.firstUsed()
}

func (r *physicalRange) registerRead(pass int) {
	if r.firstRead == -1 || pass < r.firstRead {
		r.firstRead = pass
	}
	if pass > r.lastRead {
		r.lastRead = pass
	}
}

func (r *physicalRange) registerWrite(pass int, blockAlias bool) {
	if r.firstWrite == -1 || pass < r.firstWrite {
		r.firstWrite = pass
	}
	if pass > r.lastWrite {
		r.lastWrite = pass
	}
	if blockAlias {
		r.blockAlias = true
	}
}

// buildAliases finds physical slots with identical shape, non-overlapping
// lifetimes, and single matching queue usage, and folds the later one onto
// the earlier; the chain is recorded on the owning physical pass so the
// submission engine can insert a one-time transfer-of-ownership barrier
// (4.3, "Aliasing").
func buildAliases(g *Graph) {
	ranges := make([]physicalRange, len(g.physicalDimensions))
	for i := range ranges {
		ranges[i] = newPhysicalRange()
	}

	registerReader := func(resource ResourceID, phys int) {
		if resource == ResourceNone || phys < 0 {
			return
		}
		r := g.resources[resource]
		if r.PhysicalIndex == PhysicalIndexUnused {
			return
		}
		ranges[r.PhysicalIndex].registerRead(phys)
	}
	registerWriter := func(resource ResourceID, phys int, blockAlias bool) {
		if resource == ResourceNone || phys < 0 {
			return
		}
		r := g.resources[resource]
		if r.PhysicalIndex == PhysicalIndexUnused {
			return
		}
		ranges[r.PhysicalIndex].registerWrite(phys, blockAlias)
	}

	for _, passID := range g.scheduled {
		pass := g.passes[passID]
		phys := pass.PhysicalPassIndex

		for _, in := range pass.ColorInputs {
			registerReader(in, phys)
		}
		for _, in := range pass.ColorScaleInputs {
			registerReader(in, phys)
		}
		for _, in := range pass.AttachmentInputs {
			registerReader(in, phys)
		}
		for _, in := range pass.GenericTextureInputs {
			registerReader(in.Resource, phys)
		}
		for _, in := range pass.BlitTextureInputs {
			registerReader(in, phys)
		}
		for _, in := range pass.StorageTextureInputs {
			registerReader(in, phys)
		}
		if pass.DepthStencilInput != ResourceNone {
			registerReader(pass.DepthStencilInput, phys)
		}

		blockAlias := pass.Callbacks.NeedRenderPass != nil

		registerWriter(pass.DepthStencilOutput, phys, blockAlias)
		for _, out := range pass.ColorOutputs {
			registerWriter(out, phys, blockAlias)
		}
		for _, out := range pass.ResolveOutputs {
			registerWriter(out, phys, blockAlias)
		}
		for _, out := range pass.BlitTextureOutputs {
			registerWriter(out, phys, blockAlias)
		}
		// Storage textures are never aliased - implicitly preserved.
		for _, out := range pass.StorageTextureOutputs {
			registerWriter(out, phys, true)
		}
	}

	g.physicalAliases = make([]PhysicalIndex, len(g.physicalDimensions))
	for i := range g.physicalAliases {
		g.physicalAliases[i] = PhysicalIndexUnused
	}

	aliasChains := make([][]PhysicalIndex, len(g.physicalDimensions))

	for i := range g.physicalDimensions {
		if g.physicalDimensions[i].IsBuffer() || g.physicalImageHasHistory[i] {
			continue
		}
		for j := 0; j < i; j++ {
			if g.physicalImageHasHistory[j] {
				continue
			}
			if !sameShape(&g.physicalDimensions[i], &g.physicalDimensions[j]) {
				continue
			}
			sameSingleQueue := g.physicalDimensions[i].Queues == g.physicalDimensions[j].Queues &&
				g.physicalDimensions[i].Queues.PopCount() == 1
			if !sameSingleQueue {
				continue
			}
			if !ranges[i].disjoint(&ranges[j]) {
				continue
			}

			g.physicalAliases[i] = PhysicalIndex(j)
			if len(aliasChains[j]) == 0 {
				aliasChains[j] = append(aliasChains[j], PhysicalIndex(j))
			}
			aliasChains[j] = append(aliasChains[j], PhysicalIndex(i))

			merged := g.physicalDimensions[j].ImageUsage | g.physicalDimensions[i].ImageUsage
			g.physicalDimensions[i].ImageUsage = merged
			g.physicalDimensions[j].ImageUsage = merged
			break
		}
	}

	for _, chain := range aliasChains {
		if len(chain) == 0 {
			continue
		}
		insertionSortByFirstUse(chain, ranges)
		for i, slot := range chain {
			var next PhysicalIndex
			if i+1 < len(chain) {
				next = chain[i+1]
			} else {
				next = chain[0]
			}
			lastPass := ranges[slot].lastUsed()
			if lastPass < 0 || lastPass >= len(g.physicalPasses) {
				continue
			}
			g.physicalPasses[lastPass].AliasTransfer = append(g.physicalPasses[lastPass].AliasTransfer, [2]PhysicalIndex{slot, next})
		}
	}
}

func sameShape(a, b *PhysicalDimensions) bool {
	if a.IsBuffer() != b.IsBuffer() {
		return false
	}
	if a.IsBuffer() {
		return a.Buffer.Size == b.Buffer.Size && a.Buffer.Usage == b.Buffer.Usage
	}
	return a.SizeClass == b.SizeClass && a.SizeX == b.SizeX && a.SizeY == b.SizeY &&
		a.SizeZ == b.SizeZ && a.Format == b.Format && a.Samples == b.Samples &&
		a.Levels == b.Levels && a.Layers == b.Layers
}

func insertionSortByFirstUse(chain []PhysicalIndex, ranges []physicalRange) {
	less := func(a, b PhysicalIndex) bool { return ranges[a].lastUsed() < ranges[b].firstUsed() }
	for i := 1; i < len(chain); i++ {
		for j := i; j > 0 && less(chain[j], chain[j-1]); j-- {
			chain[j-1], chain[j] = chain[j], chain[j-1]
		}
	}
}

// resolveSwapchainAlias decides whether the backbuffer's physical slot can
// be used directly as the swapchain image (transient, not used on the
// compute queue, matching dimensions) or whether a blit fallback pass is required (4.6).
func resolveSwapchainAlias(g *Graph) {
	backbufferID := g.resourceByName[g.backbufferSource]
	phys := g.resources[backbufferID].PhysicalIndex
	g.swapchainPhysicalIndex = phys

	dim := &g.physicalDimensions[phys]

	canAliasBackbuffer := !dim.Queues.Has(QueueCompute) && dim.Transient

	for i := range g.physicalDimensions {
		if PhysicalIndex(i) != phys {
			g.physicalDimensions[i].Transform = 0
		}
	}

	dim.Persistent = g.backbufferDims.Persistent

	if !canAliasBackbuffer || !dimensionsMatchSwapchain(dim, &g.backbufferDims) {
		core.LogWarn("rendergraph: cannot alias backbuffer %s, inserting blit fallback pass", dim.Name)
		g.swapchainPhysicalIndex = PhysicalIndexUnused
		dim.Queues.Add(QueueGraphics)
		dim.ImageUsage |= vk.ImageUsageFlags(vk.ImageUsageSampledBit)
	} else {
		dim.Transient = true
	}
}

func dimensionsMatchSwapchain(dim, swapchain *PhysicalDimensions) bool {
	return dim.SizeX == swapchain.SizeX && dim.SizeY == swapchain.SizeY && dim.Format == swapchain.Format
}
