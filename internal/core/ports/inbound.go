package ports

import (
	"context"

	"github.com/kirillkom/resume-insight/internal/core/domain"
)

// ResumeAnalyzer is the inbound contract for one end-to-end analysis
// run: upload, preview, checkpointed persistence, AI evaluation.
type ResumeAnalyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error)
}

// ChatAssistant is the inbound contract for the session chat. Send
// never returns an error to the caller; failures resolve to canned
// assistant replies and silent rejections return an empty string.
type ChatAssistant interface {
	Send(ctx context.Context, input string) string
	Transcript() []domain.ChatTurn
}
