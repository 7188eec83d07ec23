package rendergraph

import "testing"

func TestTaskComposerFuncAdaptsClosureToInterface(t *testing.T) {
	called := false
	var composer TaskComposer = TaskComposerFunc(func() TaskGroup {
		called = true
		return &fakeTaskGroup{}
	})

	group := composer.BeginPipelineStage()
	if !called {
		t.Fatalf("expected the wrapped closure to run")
	}
	if group == nil {
		t.Fatalf("expected a non-nil TaskGroup from the adapted closure")
	}
}
