package domain

// JobContext is the caller-supplied metadata attached to a run.
type JobContext struct {
	Org             string `json:"org"`
	Role            string `json:"role"`
	RoleDescription string `json:"roleDescription"`
}

// EvaluationRecord is the unit of work and the persisted artifact.
// ID is generated once at creation and never changes. SourcePath and
// PreviewPath are assigned together once both uploads succeed.
// Evaluation transitions exactly once from the placeholder to the
// final value per run.
type EvaluationRecord struct {
	ID          string     `json:"id"`
	SourcePath  string     `json:"sourcePath"`
	PreviewPath string     `json:"previewPath"`
	Context     JobContext `json:"context"`
	Evaluation  Feedback   `json:"evaluation"`
}

// RecordKey builds the store key for a record id.
func RecordKey(id string) string {
	return "record:" + id
}

// Stage identifies a position in the analysis pipeline state machine.
type Stage string

const (
	StageIdle             Stage = "idle"
	StageUploadingSource  Stage = "uploading_source"
	StageConvertingPrev   Stage = "converting_preview"
	StageUploadingPreview Stage = "uploading_preview"
	StagePersistingInit   Stage = "persisting_initial"
	StageAnalyzing        Stage = "analyzing_with_ai"
	StageSanitizing       Stage = "sanitizing"
	StageUsingFallback    Stage = "using_fallback_feedback"
	StagePersistingFinal  Stage = "persisting_final"
	StageDone             Stage = "done"
	StageFailed           Stage = "failed"
)
