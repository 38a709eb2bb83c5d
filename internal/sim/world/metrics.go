package world

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Entities  int `json:"entities"`
	Observers int `json:"observers"`

	LoadedChunks    int    `json:"loaded_chunks"`
	ArchivedChunks  int    `json:"archived_chunks"`
	GeneratedChunks uint64 `json:"generated_chunks"`
	DroppedChunks   uint64 `json:"dropped_chunks"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`

	LastTick TickCounters `json:"last_tick"`
}

type QueueDepths struct {
	Spawn   int `json:"spawn"`
	Despawn int `json:"despawn"`
	Damage  int `json:"damage"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}
