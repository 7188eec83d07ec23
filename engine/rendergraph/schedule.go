package rendergraph

// traverseDependencies walks back from the backbuffer resource, visiting
// every pass that (transitively) produces it, and returns the flattened,
// de-duplicated pass list in dependency order (4.2).
func traverseDependencies(g *Graph) ([]PassID, error) {
	for _, p := range g.passes {
		p.hardDeps = newPassIDSet()
		p.mergeDeps = newPassIDSet()
	}

	backbuffer := g.resources[g.resourceByName[g.backbufferSource]]
	if !backbuffer.hasWriter() {
		return nil, newGraphError(ErrDanglingDependency, "", backbuffer.Name, "no pass writes to resource")
	}

	var stack []PassID
	for id := range backbuffer.WrittenInPasses {
		stack = append(stack, id)
	}
	sortPassIDs(stack)

	initial := append([]PassID(nil), stack...)
	for _, id := range initial {
		if err := traversePass(g, g.passes[id], 0, &stack); err != nil {
			return nil, err
		}
	}

	// Reverse, then de-duplicate preserving first occurrence.
	reversed := make([]PassID, len(stack))
	for i, id := range stack {
		reversed[len(stack)-1-i] = id
	}

	seen := newPassIDSet()
	flattened := make([]PassID, 0, len(reversed))
	for _, id := range reversed {
		if !seen.has(id) {
			seen.add(id)
			flattened = append(flattened, id)
		}
	}
	return flattened, nil
}

// traversePass recurses through one pass's inputs, classifying each
// dependency edge as merge-preferred or ordinary per 4.2, and pushes every
// newly-discovered writer pass onto stack for later flattening.
func traversePass(g *Graph, pass *Pass, stackCount int, stack *[]PassID) error {
	if pass.DepthStencilInput != ResourceNone {
		if err := dependOnWriters(g, pass, pass.DepthStencilInput, stackCount, false, true, stack); err != nil {
			return err
		}
	}

	for _, in := range pass.AttachmentInputs {
		selfDep := pass.DepthStencilOutput == in || containsResource(pass.ColorOutputs, in)
		if selfDep {
			continue
		}
		if err := dependOnWriters(g, pass, in, stackCount, false, true, stack); err != nil {
			return err
		}
	}

	for _, in := range pass.ColorInputs {
		if in == ResourceNone {
			continue
		}
		if err := dependOnWriters(g, pass, in, stackCount, false, true, stack); err != nil {
			return err
		}
	}

	for _, in := range pass.ColorScaleInputs {
		if in == ResourceNone {
			continue
		}
		if err := dependOnWriters(g, pass, in, stackCount, false, false, stack); err != nil {
			return err
		}
	}

	for _, in := range pass.BlitTextureInputs {
		if in == ResourceNone {
			continue
		}
		if err := dependOnWriters(g, pass, in, stackCount, false, false, stack); err != nil {
			return err
		}
	}

	for _, in := range pass.GenericTextureInputs {
		if err := dependOnWriters(g, pass, in.Resource, stackCount, false, false, stack); err != nil {
			return err
		}
	}

	for _, in := range pass.StorageInputs {
		if in == ResourceNone {
			continue
		}
		// There might be no writers if the storage buffer is used purely
		// in a feedback fashion; noCheck permits an empty writer set here.
		if err := dependOnPasses(g, pass, setKeys(g.resources[in].WrittenInPasses), stackCount, true, false, stack); err != nil {
			return err
		}
		// Write-after-read hazard: also depend on prior readers.
		if err := dependOnPasses(g, pass, setKeys(g.resources[in].ReadInPasses), stackCount, true, false, stack); err != nil {
			return err
		}
	}

	for _, in := range pass.StorageTextureInputs {
		if in == ResourceNone {
			continue
		}
		if err := dependOnWriters(g, pass, in, stackCount, false, false, stack); err != nil {
			return err
		}
	}

	for _, in := range pass.GenericBufferInputs {
		if err := dependOnPasses(g, pass, setKeys(g.resources[in.Resource].WrittenInPasses), stackCount, true, false, stack); err != nil {
			return err
		}
	}

	return nil
}

func containsResource(list []ResourceID, needle ResourceID) bool {
	for _, r := range list {
		if r == needle {
			return true
		}
	}
	return false
}

func setKeys(m map[PassID]struct{}) []PassID {
	keys := make([]PassID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortPassIDs(keys)
	return keys
}

func dependOnWriters(g *Graph, pass *Pass, resource ResourceID, stackCount int, noCheck, mergeDependency bool, stack *[]PassID) error {
	return dependOnPasses(g, pass, setKeys(g.resources[resource].WrittenInPasses), stackCount, noCheck, mergeDependency, stack)
}

// dependOnPasses is depend_passes_recursive (4.2): records hard (and
// optionally merge-preferred) dependency edges, detects cycles via the
// stack-depth bound, and recurses into each newly-pushed writer.
func dependOnPasses(g *Graph, self *Pass, writers []PassID, stackCount int, noCheck, mergeDependency bool, stack *[]PassID) error {
	if !noCheck && len(writers) == 0 {
		return newGraphError(ErrDanglingDependency, self.Name, "", "no pass writes to resource")
	}
	if stackCount > len(g.passes) {
		return newGraphError(ErrCycle, self.Name, "", "cycle detected")
	}

	for _, w := range writers {
		if w != self.ID {
			self.hardDeps.add(w)
		}
	}
	if mergeDependency {
		for _, w := range writers {
			if w != self.ID {
				self.mergeDeps.add(w)
			}
		}
	}

	stackCount++
	for _, w := range writers {
		if w == self.ID {
			return newGraphError(ErrCycle, self.Name, "", "pass depends on itself")
		}
		*stack = append(*stack, w)
		if err := traversePass(g, g.passes[w], stackCount, stack); err != nil {
			return err
		}
	}
	return nil
}

// dependsOnPass reports whether dst transitively (hard-)depends on src,
// used both by reorderPasses and by the legality check in the greedy
// scheduler below.
func dependsOnPass(g *Graph, dst, src PassID) bool {
	if dst == src {
		return true
	}
	for dep := range g.passes[dst].hardDeps {
		if dependsOnPass(g, dep, src) {
			return true
		}
	}
	return false
}

// reorderPasses propagates merge-preferred dependencies to hard dependees
// (avoiding cycles), then greedily schedules passes to maximise overlap
// while keeping merge-preferred pairs adjacent, per 4.2.
func reorderPasses(g *Graph, flattened []PassID) ([]PassID, error) {
	for _, passID := range flattened {
		pass := g.passes[passID]
		for mergeDep := range pass.mergeDeps {
			for dependee := range pass.hardDeps {
				if dependee == mergeDep {
					continue
				}
				if dependsOnPass(g, dependee, mergeDep) {
					continue
				}
				g.passes[mergeDep].hardDeps.add(dependee)
			}
		}
	}

	if len(flattened) <= 2 {
		return flattened, nil
	}

	unscheduled := append([]PassID(nil), flattened...)
	scheduled := make([]PassID, 0, len(unscheduled))

	schedule := func(index int) {
		scheduled = append(scheduled, unscheduled[index])
		unscheduled = append(unscheduled[:index], unscheduled[index+1:]...)
	}

	schedule(0)
	for len(unscheduled) > 0 {
		bestCandidate := 0
		bestOverlap := -1 // allow overlap 0 to be selected when nothing beats it

		for i, candidateID := range unscheduled {
			overlap := 0
			last := scheduled[len(scheduled)-1]
			if g.passes[candidateID].mergeDeps.has(last) {
				overlap = 1 << 30 // "infinite": force adjacency for subpass merging
			} else {
				for j := len(scheduled) - 1; j >= 0; j-- {
					if dependsOnPass(g, candidateID, scheduled[j]) {
						break
					}
					overlap++
				}
			}

			if overlap <= bestOverlap {
				continue
			}

			possible := true
			for j := 0; j < i; j++ {
				if dependsOnPass(g, candidateID, unscheduled[j]) {
					possible = false
					break
				}
			}
			if !possible {
				continue
			}

			bestCandidate = i
			bestOverlap = overlap
		}

		schedule(bestCandidate)
	}

	return scheduled, nil
}
