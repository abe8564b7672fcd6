package domain

// AnalysisRequest starts one pipeline run. Document carries the raw
// source bytes; Context is stored on the record verbatim.
type AnalysisRequest struct {
	Filename string     `json:"filename"`
	Document []byte     `json:"document"`
	Context  JobContext `json:"context"`
}

// AnalysisResult reports a completed run. UsedFallback is true when
// the evaluation is the deterministic substitute rather than a
// provider-derived one. Provider names the backend that produced the
// evaluation, empty on fallback.
type AnalysisResult struct {
	Record         *EvaluationRecord
	Provider       string
	UsedFallback   bool
	FallbackReason string
	Status         string
}
