package domain

// Stage identifies one step of the pipeline.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageGenerating   Stage = "generating"
	StageSynthesizing Stage = "synthesizing"
	StageImaging      Stage = "imaging"
	StageTranscribing Stage = "transcribing"
	StageComposing    Stage = "composing"
	StagePublishing   Stage = "publishing"
	StageDone         Stage = "done"
)

// stageOrder is the only legal forward path through the pipeline.
var stageOrder = []Stage{
	StageIdle,
	StageGenerating,
	StageSynthesizing,
	StageImaging,
	StageTranscribing,
	StageComposing,
	StagePublishing,
	StageDone,
}

// Next returns the stage that follows s. The second return value is false
// when s is terminal or unknown.
func (s Stage) Next() (Stage, bool) {
	for i, st := range stageOrder {
		if st == s && i+1 < len(stageOrder) {
			return stageOrder[i+1], true
		}
	}
	return "", false
}

// Valid reports whether s is a known pipeline stage.
func (s Stage) Valid() bool {
	for _, st := range stageOrder {
		if st == s {
			return true
		}
	}
	return false
}

// CanAdvanceTo reports whether moving from s to next is a legal transition.
// Transitions are strictly forward, one stage at a time.
func (s Stage) CanAdvanceTo(next Stage) bool {
	n, ok := s.Next()
	return ok && n == next
}
