package rendergraph

import (
	vk "github.com/goki/vulkan"
)

// PhysicalEventState is the persistent per-physical-slot synchronisation
// state carried across frames: the layout the resource is currently in,
// what has been flushed but not yet invalidated, and the wait primitives a
// consumer on another queue must wait on before invalidating it (4.5,
// "Per-resource event state"). History slots keep a second copy so the
// previous frame's content remains valid while the current frame is
// produced.
type PhysicalEventState struct {
	Layout vk.ImageLayout

	// ToFlushAccess is the set of access types written since the last
	// flush was recorded; a consumer's invalidate barrier must wait on
	// this before reading.
	ToFlushAccess vk.AccessFlags

	// InvalidatedInStage[stage] records which access types are already
	// visible to that pipeline stage, so a subsequent invalidate barrier
	// that only needs a subset can be skipped (4.5, "need_invalidate").
	InvalidatedInStage [32]vk.AccessFlags

	// Event / WaitGraphicsSemaphore / WaitComputeSemaphore are the
	// Device-level synchronisation handles a consumer waits on; at most
	// one of Event or the two semaphores is populated for any given
	// producer, depending on whether the resource crossed a queue.
	Event                 vk.Event
	WaitGraphicsSemaphore vk.Semaphore
	WaitComputeSemaphore  vk.Semaphore
}

// needInvalidate reports whether a consumer barrier still needs an
// invalidation: true when, for any stage in its mask, some required access
// bit has not yet been invalidated in that stage, mirroring
// RenderGraph::need_invalidate (4.5).
func needInvalidate(barrier Barrier, state *PhysicalEventState) bool {
	need := false
	forEachStageBit(barrier.StageMask, func(bit int) {
		if barrier.AccessMask&^state.InvalidatedInStage[bit] != 0 {
			need = true
		}
	})
	return need
}

func forEachStageBit(mask vk.PipelineStageFlags, fn func(bit int)) {
	for bit := 0; bit < 32; bit++ {
		if uint32(mask)&(1<<uint(bit)) != 0 {
			fn(bit)
		}
	}
}

// updateEventState applies one physical slot's resolved invalidate/flush
// barrier for the frame just submitted: records the new layout, clears the
// invalidated-in-stage bits a write makes stale, and marks the stages the
// following invalidate becomes visible to (4.5, steps 1-5).
func updateEventState(state *PhysicalEventState, invalidate, flush *Barrier) {
	if flush != nil && flush.AccessMask != 0 {
		state.ToFlushAccess |= flush.AccessMask
		for i := range state.InvalidatedInStage {
			state.InvalidatedInStage[i] = 0
		}
	}

	if invalidate != nil && invalidate.AccessMask != 0 {
		forEachStageBit(invalidate.StageMask, func(bit int) {
			state.InvalidatedInStage[bit] |= invalidate.AccessMask | state.ToFlushAccess
		})
		state.ToFlushAccess = 0
		state.Layout = invalidate.Layout
	} else if flush != nil && flush.Layout != vk.ImageLayoutUndefined {
		state.Layout = flush.Layout
	}
}

// swapHistory exchanges a slot's current-frame and previous-frame event
// state, called once per frame for every physical slot flagged
// HasHistory, so a history-input read in the new frame observes what the
// prior frame actually flushed (4.3 "History image detection", 8 invariant
// on history semantics).
func (g *Graph) swapHistory() {
	for i, hasHistory := range g.physicalImageHasHistory {
		if hasHistory {
			g.eventState[i], g.historyState[i] = g.historyState[i], g.eventState[i]
		}
	}
}

// eventStateFor returns the persistent event state a barrier must be
// evaluated/applied against: the history copy for a history-flagged
// barrier, the current-frame copy otherwise (4.5).
func (g *Graph) eventStateFor(b *Barrier) *PhysicalEventState {
	if b.History {
		return &g.historyState[b.Physical]
	}
	return &g.eventState[b.Physical]
}
