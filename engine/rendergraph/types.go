// Package rendergraph implements the frame-level render graph: pass and
// resource registration, dependency scheduling, physical resource/pass
// planning, barrier synthesis and per-frame submission across the
// graphics/compute/transfer queues exposed by engine/renderer/vulkan.
package rendergraph

import (
	vk "github.com/goki/vulkan"
)

// PassID indexes into Graph.passes.
type PassID int

// ResourceID indexes into Graph.resources.
type ResourceID int

// PhysicalIndex indexes into Graph.physicalDimensions / Graph.eventState.
// PhysicalIndexUnused marks a logical resource that has not yet been
// assigned a physical backing slot.
type PhysicalIndex int

const (
	PhysicalIndexUnused PhysicalIndex = -1
	ResourceNone        ResourceID    = -1
	PassNone            PassID        = -1
)

// QueueKind names one of the logical queues a pass can be bound to.
type QueueKind int

const (
	QueueGraphics QueueKind = iota
	QueueCompute            // async compute
	QueueAsyncGraphics
	QueueTransfer
	QueueVideo
	numQueueKinds
)

func (q QueueKind) String() string {
	switch q {
	case QueueGraphics:
		return "graphics"
	case QueueCompute:
		return "async-compute"
	case QueueAsyncGraphics:
		return "async-graphics"
	case QueueTransfer:
		return "async-transfer"
	case QueueVideo:
		return "video"
	default:
		return "unknown-queue"
	}
}

// QueueMask is a bitmask of queue kinds that touch a resource.
type QueueMask uint32

func queueBit(q QueueKind) QueueMask { return QueueMask(1) << uint(q) }

func (m QueueMask) Has(q QueueKind) bool { return m&queueBit(q) != 0 }
func (m *QueueMask) Add(q QueueKind)     { *m |= queueBit(q) }

// PopCount reports how many distinct queues are present in the mask -
// used by the aliasing pass, which only aliases within a single queue.
func (m QueueMask) PopCount() int {
	count := 0
	for b := m; b != 0; b &= b - 1 {
		count++
	}
	return count
}

// UsesSemaphore reports whether a resource touched by more than one
// physical queue must hand off via semaphore pairs rather than a
// same-queue event, per the Barrier Synthesiser (4.5).
func (m QueueMask) UsesSemaphore() bool { return m.PopCount() > 1 }

// ResourceKind distinguishes texture and buffer logical resources.
type ResourceKind int

const (
	ResourceTexture ResourceKind = iota
	ResourceBuffer
)

// SizeClass selects how a texture's dimensions are computed.
type SizeClass int

const (
	SizeSwapchainRelative SizeClass = iota
	SizeAbsolute
	SizeInputRelative
)

// AttachmentInfo describes a texture resource's declared shape.
type AttachmentInfo struct {
	SizeClass SizeClass
	SizeX     float32
	SizeY     float32
	SizeZ     float32
	// InputName is only meaningful when SizeClass == SizeInputRelative.
	InputName string

	Samples vk.SampleCountFlagBits
	Levels  uint32
	Layers  uint32
	Format  vk.Format

	AuxUsage vk.ImageUsageFlags

	Persistent         bool
	SupportsPrerotate  bool
	UnormSRGBAlias     bool
}

// HasMipmaps reports whether the declared attachment requires a mip chain,
// which forbids subpass merging of its producer with anything after it.
func (a AttachmentInfo) HasMipmaps() bool { return a.Levels > 1 }

// BufferInfo describes a buffer resource's declared shape.
type BufferInfo struct {
	Size       uint64
	Usage      vk.BufferUsageFlags
	Persistent bool
}

// PhysicalDimensions is the materialised description of a physical slot,
// produced by the Physical Resource Planner (4.3) from one or more logical
// resources that were assigned the same physical index.
type PhysicalDimensions struct {
	// Texture shape (zero value when Buffer != nil).
	AttachmentInfo
	// Buffer shape, set only for buffer physical slots.
	Buffer *BufferInfo

	Queues      QueueMask
	ImageUsage  vk.ImageUsageFlags
	BufferUsage vk.BufferUsageFlags

	Transient  bool
	Persistent bool
	HasHistory bool

	// Transform carries the pre-rotate transform bit for the one physical
	// slot aliased to the true swapchain image, per 4.9 design notes.
	Transform uint32

	// Name is kept for diagnostics (Graph.Log) - the first logical
	// resource name that landed on this physical slot.
	Name string
}

func (p *PhysicalDimensions) IsBuffer() bool { return p.Buffer != nil }

// Barrier records one resource's required access/stage/layout at a pass
// boundary, as produced by the Barrier Synthesiser (4.5).
type Barrier struct {
	Resource   ResourceID
	Physical   PhysicalIndex
	Layout     vk.ImageLayout
	AccessMask vk.AccessFlags
	StageMask  vk.PipelineStageFlags
	History    bool
}

// barrierKey groups invalidate/flush maps by resource + history flag, as
// required by 4.5 ("keyed by (resource_index, history_flag)").
type barrierKey struct {
	resource ResourceID
	history  bool
}

// Quirks surfaces device/driver capability toggles that affect scheduling
// decisions, per the Open Questions recorded in 4.9 / DESIGN.md.
type Quirks struct {
	// MergeSubpasses enables subpass merging; false disables it outright,
	// useful on immediate-mode GPUs where the tile-based cost model does not apply.
	MergeSubpasses bool
	// UseTransientColor / UseTransientDepth gate whether transient-eligible
	// attachments are actually allocated as VK_ATTACHMENT transient images.
	UseTransientColor bool
	UseTransientDepth bool
	// SupportsMultiview reports whether VK_KHR_multiview is available; when
	// false, layered graphics passes fall back to per-layer iteration.
	SupportsMultiview bool
}

// DefaultQuirks mirrors a conservative tile-based mobile GPU, matching the
// donor engine's defaults for mobile Vulkan rendering.
func DefaultQuirks() Quirks {
	return Quirks{
		MergeSubpasses:    true,
		UseTransientColor: true,
		UseTransientDepth: true,
		SupportsMultiview: false,
	}
}
