package rendergraph

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// TextureInputRef is a generic (non-attachment) texture read, carrying the
// pipeline stage(s) at which it is sampled. Repeated AddTextureInput calls
// for the same resource merge stage masks rather than appending (4.1).
type TextureInputRef struct {
	Resource ResourceID
	Stages   vk.PipelineStageFlags
}

// BufferInputRef is a generic buffer read (vertex/index/indirect/uniform/
// storage-read wrappers all resolve to this).
type BufferInputRef struct {
	Resource ResourceID
	Stages   vk.PipelineStageFlags
	Access   vk.AccessFlags
	Usage    vk.BufferUsageFlags
}

// FakeAlias records an add_fake_resource_write_alias(from, to) pair so the
// Physical Resource Planner can pin both to the same physical slot (4.1).
type FakeAlias struct {
	From ResourceID
	To   ResourceID
}

// PassCallbacks bundles the optional user hooks a pass may attach, in place
// of the donor's std::function fields + RenderPassInterface hierarchy
// (design note 4.9).
type PassCallbacks struct {
	Build              func(cmd CommandBuffer)
	Prepare            func()
	NeedRenderPass     func() bool
	GetClearColor      func(attachment int) (vk.ClearValue, bool)
	GetClearDepthStencil func() (vk.ClearValue, bool)
	IsConditional      bool
	IsSeparateLayered  bool
	IsMultiview        bool
}

// Pass is one logical unit of GPU work bound to a single queue kind. Inputs
// paired with outputs at the same slice index are read-modify-write edges;
// ResourceNone in an input slot marks a write-only output (4, Data Model).
type Pass struct {
	ID    PassID
	Name  string
	Queue QueueKind

	ColorInputs      []ResourceID
	ColorScaleInputs []ResourceID // parallel to ColorOutputs; ResourceNone = not scaled
	ColorOutputs     []ResourceID
	ResolveOutputs   []ResourceID

	DepthStencilInput  ResourceID
	DepthStencilOutput ResourceID

	AttachmentInputs []ResourceID

	GenericTextureInputs []TextureInputRef
	genericTextureIndex  map[ResourceID]int
	GenericBufferInputs  []BufferInputRef

	StorageInputs  []ResourceID
	StorageOutputs []ResourceID

	StorageTextureInputs  []ResourceID
	StorageTextureOutputs []ResourceID

	BlitTextureInputs  []ResourceID
	BlitTextureOutputs []ResourceID

	TransferOutputs []ResourceID

	HistoryInputs []ResourceID

	FakeAliases []FakeAlias

	Callbacks PassCallbacks

	// hardDeps / mergeDeps are computed by the scheduler (schedule.go):
	// hardDeps are dependencies that must execute earlier; mergeDeps are
	// the subset that additionally make this pass a merge-preferred
	// candidate for subpass fusion (4.2).
	hardDeps  passIDSet
	mergeDeps passIDSet

	// PhysicalPassIndex is assigned by buildPhysicalPasses, identifying
	// which merged physical pass (subpass group) this pass belongs to.
	PhysicalPassIndex int
}

func newPass(id PassID, name string, queue QueueKind) *Pass {
	return &Pass{
		ID:                 id,
		Name:               name,
		Queue:              queue,
		DepthStencilInput:  ResourceNone,
		DepthStencilOutput: ResourceNone,
		genericTextureIndex: make(map[ResourceID]int),
	}
}

// AddPass registers a new pass bound to queue, idempotent on name (4.1).
func (g *Graph) AddPass(name string, queue QueueKind) *Pass {
	if id, ok := g.passByName[name]; ok {
		return g.passes[id]
	}
	id := PassID(len(g.passes))
	p := newPass(id, name, queue)
	g.passes = append(g.passes, p)
	g.passByName[name] = id
	return p
}

// --- Color ---

// AddColorOutput declares a color attachment write. If input is non-empty
// it names an existing resource read at the same attachment slot (RMW);
// a dimension mismatch is resolved later by validatePasses, which demotes
// the pair to a scaled color input (8, Scenario F).
func (p *Pass) AddColorOutput(g *Graph, name string, info AttachmentInfo, input string) ResourceID {
	res := g.GetTextureResource(name)
	res.Attachment = mergeAttachmentInfo(res.Attachment, info)
	res.ImageUsage |= vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	res.UsedQueues.Add(p.Queue)
	res.markWritten(p.ID)

	var in ResourceID = ResourceNone
	if input != "" {
		inRes := g.GetTextureResource(input)
		inRes.UsedQueues.Add(p.Queue)
		inRes.markRead(p.ID)
		in = inRes.Index
	}

	p.ColorInputs = append(p.ColorInputs, in)
	p.ColorScaleInputs = append(p.ColorScaleInputs, ResourceNone)
	p.ColorOutputs = append(p.ColorOutputs, res.Index)
	return res.Index
}

func (p *Pass) AddResolveOutput(g *Graph, name string, info AttachmentInfo) ResourceID {
	res := g.GetTextureResource(name)
	res.Attachment = mergeAttachmentInfo(res.Attachment, info)
	res.ImageUsage |= vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	res.UsedQueues.Add(p.Queue)
	res.markWritten(p.ID)
	p.ResolveOutputs = append(p.ResolveOutputs, res.Index)
	return res.Index
}

// AddAttachmentInput declares a subpass input-attachment read: the image
// produced earlier in the *same* physical pass, sampled via subpass load.
func (p *Pass) AddAttachmentInput(g *Graph, name string) ResourceID {
	res := g.GetTextureResource(name)
	res.ImageUsage |= vk.ImageUsageFlags(vk.ImageUsageInputAttachmentBit)
	res.UsedQueues.Add(p.Queue)
	res.markRead(p.ID)
	p.AttachmentInputs = append(p.AttachmentInputs, res.Index)
	return res.Index
}

// --- Depth/stencil ---

func (p *Pass) SetDepthStencilInput(g *Graph, name string) ResourceID {
	res := g.GetTextureResource(name)
	res.ImageUsage |= vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
	res.UsedQueues.Add(p.Queue)
	res.markRead(p.ID)
	p.DepthStencilInput = res.Index
	return res.Index
}

func (p *Pass) SetDepthStencilOutput(g *Graph, name string, info AttachmentInfo) ResourceID {
	res := g.GetTextureResource(name)
	res.Attachment = mergeAttachmentInfo(res.Attachment, info)
	res.ImageUsage |= vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
	res.UsedQueues.Add(p.Queue)
	res.markWritten(p.ID)
	p.DepthStencilOutput = res.Index
	return res.Index
}

// --- Generic texture / buffer ---

// AddTextureInput declares a generic (non-attachment) sampled-texture read.
// Repeated calls for the same resource merge stage masks instead of
// appending a duplicate entry (4.1).
func (p *Pass) AddTextureInput(g *Graph, name string, stages vk.PipelineStageFlags) ResourceID {
	res := g.GetTextureResource(name)
	res.ImageUsage |= vk.ImageUsageFlags(vk.ImageUsageSampledBit)
	res.UsedQueues.Add(p.Queue)
	res.markRead(p.ID)
	if stages == 0 {
		stages = defaultTextureStage(p.Queue)
	}
	if idx, ok := p.genericTextureIndex[res.Index]; ok {
		p.GenericTextureInputs[idx].Stages |= stages
	} else {
		p.genericTextureIndex[res.Index] = len(p.GenericTextureInputs)
		p.GenericTextureInputs = append(p.GenericTextureInputs, TextureInputRef{Resource: res.Index, Stages: stages})
	}
	return res.Index
}

func defaultTextureStage(q QueueKind) vk.PipelineStageFlags {
	if q == QueueCompute || q == QueueAsyncGraphics {
		return vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)
	}
	return vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
}

// AddGenericBufferInput declares a generic buffer read with explicit
// stage/access/usage, underlying the vertex/index/indirect/uniform/
// storage-read convenience wrappers below.
func (p *Pass) AddGenericBufferInput(g *Graph, name string, stages vk.PipelineStageFlags, access vk.AccessFlags, usage vk.BufferUsageFlags) ResourceID {
	res := g.GetBufferResource(name)
	res.BufferUsage |= usage
	res.UsedQueues.Add(p.Queue)
	res.markRead(p.ID)
	p.GenericBufferInputs = append(p.GenericBufferInputs, BufferInputRef{Resource: res.Index, Stages: stages, Access: access, Usage: usage})
	return res.Index
}

func (p *Pass) AddVertexBufferInput(g *Graph, name string) ResourceID {
	return p.AddGenericBufferInput(g, name,
		vk.PipelineStageFlags(vk.PipelineStageVertexInputBit),
		vk.AccessFlags(vk.AccessVertexAttributeReadBit),
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
}

func (p *Pass) AddIndexBufferInput(g *Graph, name string) ResourceID {
	return p.AddGenericBufferInput(g, name,
		vk.PipelineStageFlags(vk.PipelineStageVertexInputBit),
		vk.AccessFlags(vk.AccessIndexReadBit),
		vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
}

func (p *Pass) AddIndirectBufferInput(g *Graph, name string) ResourceID {
	return p.AddGenericBufferInput(g, name,
		vk.PipelineStageFlags(vk.PipelineStageDrawIndirectBit),
		vk.AccessFlags(vk.AccessIndirectCommandReadBit),
		vk.BufferUsageFlags(vk.BufferUsageIndirectBufferBit))
}

func (p *Pass) AddUniformBufferInput(g *Graph, name string, stages vk.PipelineStageFlags) ResourceID {
	return p.AddGenericBufferInput(g, name, stages,
		vk.AccessFlags(vk.AccessUniformReadBit),
		vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit))
}

func (p *Pass) AddStorageReadOnlyBufferInput(g *Graph, name string, stages vk.PipelineStageFlags) ResourceID {
	return p.AddGenericBufferInput(g, name, stages,
		vk.AccessFlags(vk.AccessShaderReadBit),
		vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit))
}

// --- Storage (RMW) ---

func (p *Pass) AddStorageOutput(g *Graph, name string, info BufferInfo, input string) ResourceID {
	res := g.GetBufferResource(name)
	res.BufferInfo = mergeBufferInfo(res.BufferInfo, info)
	res.BufferUsage |= vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit)
	res.UsedQueues.Add(p.Queue)
	res.markWritten(p.ID)
	res.BlockAlias = true // storage buffers/images are implicitly preserved (4.3)

	var in ResourceID = ResourceNone
	if input != "" {
		inRes := g.GetBufferResource(input)
		inRes.UsedQueues.Add(p.Queue)
		inRes.markRead(p.ID)
		in = inRes.Index
	}
	p.StorageInputs = append(p.StorageInputs, in)
	p.StorageOutputs = append(p.StorageOutputs, res.Index)
	return res.Index
}

func (p *Pass) AddStorageTextureOutput(g *Graph, name string, info AttachmentInfo, input string) ResourceID {
	res := g.GetTextureResource(name)
	res.Attachment = mergeAttachmentInfo(res.Attachment, info)
	res.ImageUsage |= vk.ImageUsageFlags(vk.ImageUsageStorageBit)
	res.UsedQueues.Add(p.Queue)
	res.markWritten(p.ID)
	res.BlockAlias = true

	var in ResourceID = ResourceNone
	if input != "" {
		inRes := g.GetTextureResource(input)
		inRes.UsedQueues.Add(p.Queue)
		inRes.markRead(p.ID)
		in = inRes.Index
	}
	p.StorageTextureInputs = append(p.StorageTextureInputs, in)
	p.StorageTextureOutputs = append(p.StorageTextureOutputs, res.Index)
	return res.Index
}

func (p *Pass) AddStorageTextureInput(g *Graph, name string) ResourceID {
	res := g.GetTextureResource(name)
	res.ImageUsage |= vk.ImageUsageFlags(vk.ImageUsageStorageBit)
	res.UsedQueues.Add(p.Queue)
	res.markRead(p.ID)
	p.StorageTextureInputs = append(p.StorageTextureInputs, res.Index)
	p.StorageTextureOutputs = append(p.StorageTextureOutputs, ResourceNone)
	return res.Index
}

// --- Blit / transfer ---

func (p *Pass) AddBlitTextureOutput(g *Graph, name string, info AttachmentInfo, input string) ResourceID {
	res := g.GetTextureResource(name)
	res.Attachment = mergeAttachmentInfo(res.Attachment, info)
	res.ImageUsage |= vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	res.UsedQueues.Add(p.Queue)
	res.markWritten(p.ID)

	var in ResourceID = ResourceNone
	if input != "" {
		inRes := g.GetTextureResource(input)
		inRes.ImageUsage |= vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit)
		inRes.UsedQueues.Add(p.Queue)
		inRes.markRead(p.ID)
		in = inRes.Index
	}
	p.BlitTextureInputs = append(p.BlitTextureInputs, in)
	p.BlitTextureOutputs = append(p.BlitTextureOutputs, res.Index)
	return res.Index
}

func (p *Pass) AddBlitTextureReadOnlyInput(g *Graph, name string) ResourceID {
	res := g.GetTextureResource(name)
	res.ImageUsage |= vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit)
	res.UsedQueues.Add(p.Queue)
	res.markRead(p.ID)
	p.BlitTextureInputs = append(p.BlitTextureInputs, res.Index)
	p.BlitTextureOutputs = append(p.BlitTextureOutputs, ResourceNone)
	return res.Index
}

func (p *Pass) AddTransferOutput(g *Graph, name string, info AttachmentInfo) ResourceID {
	res := g.GetTextureResource(name)
	res.Attachment = mergeAttachmentInfo(res.Attachment, info)
	res.ImageUsage |= vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	res.UsedQueues.Add(p.Queue)
	res.markWritten(p.ID)
	p.TransferOutputs = append(p.TransferOutputs, res.Index)
	return res.Index
}

// --- History ---

// AddHistoryInput declares a read of the resource's previous-frame content,
// which does not require an in-frame writer (8, invariant 1) but does
// require *some* pass in the graph to write the current-frame resource,
// checked during buildPhysicalResources (4.3).
func (p *Pass) AddHistoryInput(g *Graph, name string) ResourceID {
	res := g.GetTextureResource(name)
	res.IsHistory = true
	res.UsedQueues.Add(p.Queue)
	res.markRead(p.ID)
	p.HistoryInputs = append(p.HistoryInputs, res.Index)
	return res.Index
}

// --- Fake alias ---

// AddFakeResourceWriteAlias copies from's descriptor onto to, resets to's
// read/write sets, marks to written by this pass, and records the pair so
// the Physical Resource Planner pins them to one physical slot (4.1).
func (p *Pass) AddFakeResourceWriteAlias(g *Graph, from, to string) {
	fromRes := g.GetTextureResource(from)
	toRes := g.GetTextureResource(to)

	toRes.Attachment = fromRes.Attachment
	toRes.ImageUsage = fromRes.ImageUsage
	toRes.ReadInPasses = make(map[PassID]struct{})
	toRes.WrittenInPasses = make(map[PassID]struct{})
	toRes.markWritten(p.ID)
	toRes.UsedQueues.Add(p.Queue)

	p.FakeAliases = append(p.FakeAliases, FakeAlias{From: fromRes.Index, To: toRes.Index})
}

// --- Callback setters ---

func (p *Pass) SetBuildRenderPass(cb func(cmd CommandBuffer))       { p.Callbacks.Build = cb }
func (p *Pass) SetEnqueuePrepareRenderPass(cb func())               { p.Callbacks.Prepare = cb }
func (p *Pass) SetNeedRenderPass(cb func() bool)                    { p.Callbacks.NeedRenderPass = cb }
func (p *Pass) SetGetClearColor(cb func(int) (vk.ClearValue, bool)) { p.Callbacks.GetClearColor = cb }
func (p *Pass) SetGetClearDepthStencil(cb func() (vk.ClearValue, bool)) {
	p.Callbacks.GetClearDepthStencil = cb
}

func mergeAttachmentInfo(dst, src AttachmentInfo) AttachmentInfo {
	if dst.Format == vk.FormatUndefined {
		dst = src
		return dst
	}
	if src.Levels > dst.Levels {
		dst.Levels = src.Levels
	}
	if src.Layers > dst.Layers {
		dst.Layers = src.Layers
	}
	dst.Persistent = dst.Persistent || src.Persistent
	dst.SupportsPrerotate = dst.SupportsPrerotate || src.SupportsPrerotate
	dst.UnormSRGBAlias = dst.UnormSRGBAlias || src.UnormSRGBAlias
	dst.AuxUsage |= src.AuxUsage
	return dst
}

func mergeBufferInfo(dst, src BufferInfo) BufferInfo {
	if src.Size > dst.Size {
		dst.Size = src.Size
	}
	dst.Usage |= src.Usage
	dst.Persistent = dst.Persistent || src.Persistent
	return dst
}

// validatePasses enforces the shape invariants of 3. Data Model /
// validate_passes: equal-length RMW pairs, resolve count, depth dimension
// agreement, and silent promotion of mismatched color RMW pairs to scaled
// color inputs (8, Scenario F).
func validatePasses(g *Graph) error {
	for _, p := range g.passes {
		if len(p.ColorInputs) != len(p.ColorOutputs) {
			return newGraphError(ErrShapeMismatch, p.Name, "", "color input/output count mismatch")
		}
		if len(p.StorageInputs) != len(p.StorageOutputs) {
			return newGraphError(ErrShapeMismatch, p.Name, "", "storage input/output count mismatch")
		}
		if len(p.StorageTextureInputs) != len(p.StorageTextureOutputs) {
			return newGraphError(ErrShapeMismatch, p.Name, "", "storage-texture input/output count mismatch")
		}
		if len(p.BlitTextureInputs) != len(p.BlitTextureOutputs) {
			return newGraphError(ErrShapeMismatch, p.Name, "", "blit input/output count mismatch")
		}
		if len(p.ResolveOutputs) != 0 && len(p.ResolveOutputs) != len(p.ColorOutputs) {
			return newGraphError(ErrShapeMismatch, p.Name, "", "resolve output count must be 0 or match color output count")
		}
		if p.DepthStencilInput != ResourceNone && p.DepthStencilOutput != ResourceNone {
			in := g.resources[p.DepthStencilInput]
			out := g.resources[p.DepthStencilOutput]
			if !dimensionsMatch(in.Attachment, out.Attachment) {
				return newGraphError(ErrShapeMismatch, p.Name, in.Name, "depth input/output dimensions disagree")
			}
		}

		for i, in := range p.ColorInputs {
			if in == ResourceNone {
				continue
			}
			out := p.ColorOutputs[i]
			if !dimensionsMatch(g.resources[in].Attachment, g.resources[out].Attachment) {
				// Mismatch in a color pair silently promotes the input to a
				// scaled color input (8, Scenario F): moves from
				// ColorInputs into ColorScaleInputs at the same index.
				p.ColorScaleInputs[i] = in
				p.ColorInputs[i] = ResourceNone
				g.resources[in].ReadInPasses[p.ID] = struct{}{}
			}
		}
	}
	return nil
}

func dimensionsMatch(a, b AttachmentInfo) bool {
	if a.SizeClass != b.SizeClass {
		return false
	}
	switch a.SizeClass {
	case SizeAbsolute:
		return a.SizeX == b.SizeX && a.SizeY == b.SizeY && a.SizeZ == b.SizeZ
	case SizeSwapchainRelative:
		return a.SizeX == b.SizeX && a.SizeY == b.SizeY && a.SizeZ == b.SizeZ
	case SizeInputRelative:
		return a.InputName == b.InputName && a.SizeX == b.SizeX && a.SizeY == b.SizeY && a.SizeZ == b.SizeZ
	default:
		return false
	}
}

func (p *Pass) String() string {
	return fmt.Sprintf("Pass(%d, %s, queue=%s)", p.ID, p.Name, p.Queue)
}
