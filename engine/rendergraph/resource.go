package rendergraph

import (
	vk "github.com/goki/vulkan"

	"golang.org/x/exp/maps"
)

// Resource is a named logical texture or buffer declared by one or more
// passes. It is created lazily on first reference (GetTextureResource /
// GetBufferResource) and carries bookkeeping accumulated across every pass
// that reads or writes it, per the Resource Registry (4.1).
type Resource struct {
	Index ResourceID
	Name  string
	Kind  ResourceKind

	// PhysicalIndex is assigned by the Physical Resource Planner (4.3);
	// PhysicalIndexUnused until Bake() runs.
	PhysicalIndex PhysicalIndex

	UsedQueues QueueMask

	Attachment  AttachmentInfo
	ImageUsage  vk.ImageUsageFlags
	BufferInfo  BufferInfo
	BufferUsage vk.BufferUsageFlags

	ReadInPasses    map[PassID]struct{}
	WrittenInPasses map[PassID]struct{}

	// IsHistory is set once any pass declares this resource as a history
	// input; detected during buildPhysicalResources (4.3).
	IsHistory bool
	// BlockAlias forbids the aliasing pass from reusing this slot; set
	// when a pass's NeedRenderPass callback may skip at runtime, or when
	// the resource is a storage image (always implicitly preserved).
	BlockAlias bool
}

func newResource(id ResourceID, name string, kind ResourceKind) *Resource {
	return &Resource{
		Index:           id,
		Name:            name,
		Kind:            kind,
		PhysicalIndex:   PhysicalIndexUnused,
		ReadInPasses:    make(map[PassID]struct{}),
		WrittenInPasses: make(map[PassID]struct{}),
	}
}

func (r *Resource) markRead(pass PassID)    { r.ReadInPasses[pass] = struct{}{} }
func (r *Resource) markWritten(pass PassID) { r.WrittenInPasses[pass] = struct{}{} }

func (r *Resource) hasWriter() bool { return len(r.WrittenInPasses) > 0 }

// IsTransient reports whether this logical resource's physical slot was
// promoted to a transient attachment by build_transients (4.3).
func (r *Resource) IsTransient(g *Graph) bool {
	if r.PhysicalIndex == PhysicalIndexUnused {
		return false
	}
	return g.physicalDimensions[r.PhysicalIndex].Transient
}

// GetTextureResource returns the named texture resource, creating it on
// first reference. Idempotent on name, per 4.1.
func (g *Graph) GetTextureResource(name string) *Resource {
	if id, ok := g.resourceByName[name]; ok {
		return g.resources[id]
	}
	id := ResourceID(len(g.resources))
	res := newResource(id, name, ResourceTexture)
	g.resources = append(g.resources, res)
	g.resourceByName[name] = id
	return res
}

// GetBufferResource returns the named buffer resource, creating it on
// first reference.
func (g *Graph) GetBufferResource(name string) *Resource {
	if id, ok := g.resourceByName[name]; ok {
		return g.resources[id]
	}
	id := ResourceID(len(g.resources))
	res := newResource(id, name, ResourceBuffer)
	g.resources = append(g.resources, res)
	g.resourceByName[name] = id
	return res
}

// resourceNames returns a stable, sorted-by-index slice of declared
// resource names.
func (g *Graph) resourceNames() []string {
	names := make([]string, len(g.resources))
	for i, r := range g.resources {
		names[i] = r.Name
	}
	return names
}

// passIDSet is a small ordered-set helper built on golang.org/x/exp/maps,
// used throughout the scheduler to keep dependency sets and avoid
// duplicate traversal, matching the donor's preference for x/exp helpers
// over hand-rolled containers.
type passIDSet map[PassID]struct{}

func newPassIDSet() passIDSet { return make(passIDSet) }

func (s passIDSet) add(id PassID)      { s[id] = struct{}{} }
func (s passIDSet) has(id PassID) bool { _, ok := s[id]; return ok }

func (s passIDSet) sortedKeys() []PassID {
	keys := maps.Keys(s)
	// Insertion order is not preserved by a map; callers that need
	// determinism sort by PassID, which is itself assignment order.
	sortPassIDs(keys)
	return keys
}

func sortPassIDs(ids []PassID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
