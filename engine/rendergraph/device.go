package rendergraph

// TaskComposerFunc adapts a zero-argument stage factory into the
// TaskComposer interface this package consumes. A concrete composer type
// such as engine/containers.TaskComposer hands out a concrete *TaskGroup
// from BeginPipelineStage rather than this package's TaskGroup interface,
// so callers wire it in with a one-line closure:
//
//	rendergraph.TaskComposerFunc(func() rendergraph.TaskGroup {
//	    return composer.BeginPipelineStage()
//	})
//
// keeping this package free of any import on the concrete worker-pool
// implementation (4.9, "Device/CommandBuffer as consumed interfaces").
type TaskComposerFunc func() TaskGroup

func (f TaskComposerFunc) BeginPipelineStage() TaskGroup {
	return f()
}
