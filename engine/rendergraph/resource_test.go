package rendergraph

import "testing"

func TestGetTextureResourceIdempotent(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	a := g.GetTextureResource("color")
	b := g.GetTextureResource("color")
	if a != b {
		t.Fatalf("GetTextureResource returned distinct resources for the same name")
	}
	if len(g.resources) != 1 {
		t.Fatalf("expected 1 resource, got %d", len(g.resources))
	}
}

func TestGetBufferResourceNameResolvesToExistingTexture(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	g.GetTextureResource("shared-name")
	buf := g.GetBufferResource("shared-name")
	if buf.Kind != ResourceTexture {
		t.Fatalf("expected the texture already registered under the name, got kind %v", buf.Kind)
	}
	// Names are keyed in one map, so re-requesting "shared-name" as a
	// buffer resolves to the texture already registered under that name.
	if len(g.resources) != 1 {
		t.Fatalf("expected name collision to resolve to the first-registered resource, got %d distinct resources", len(g.resources))
	}
}

func TestResourceReadWriteTracking(t *testing.T) {
	g := NewGraph(DefaultQuirks())
	res := g.GetTextureResource("tex")
	if res.hasWriter() {
		t.Fatalf("fresh resource should have no writer")
	}
	res.markWritten(PassID(0))
	if !res.hasWriter() {
		t.Fatalf("expected hasWriter after markWritten")
	}
	res.markRead(PassID(1))
	if _, ok := res.ReadInPasses[PassID(1)]; !ok {
		t.Fatalf("expected pass 1 recorded as reader")
	}
}

func TestPassIDSetSortedKeys(t *testing.T) {
	s := newPassIDSet()
	s.add(PassID(3))
	s.add(PassID(1))
	s.add(PassID(2))
	keys := s.sortedKeys()
	want := []PassID{1, 2, 3}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i, k := range keys {
		if k != want[i] {
			t.Fatalf("sortedKeys not sorted: %v", keys)
		}
	}
}

func TestPassIDSetHas(t *testing.T) {
	s := newPassIDSet()
	if s.has(PassID(5)) {
		t.Fatalf("empty set should not contain anything")
	}
	s.add(PassID(5))
	if !s.has(PassID(5)) {
		t.Fatalf("expected set to contain added id")
	}
}
