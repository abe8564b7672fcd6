package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/resume-insight/internal/core/domain"
)

// buildEvaluationInstructions renders the analysis payload from the
// caller-supplied job context.
func buildEvaluationInstructions(jobCtx domain.JobContext) string {
	return fmt.Sprintf(`You are an expert in resume review and applicant tracking systems.
Evaluate the referenced resume and rate it for the position below.
Return strict JSON object with keys:
overallScore (integer 0-100), structuralCompliance, tone, contentQuality, organization, skillsAlignment.
Each category is an object with score (integer 0-100) and tips (array of {kind: "positive"|"improvement", summary, detail}).
No markdown, no extra keys.

Organization: %s
Role: %s
Role description:
%s
`, jobCtx.Org, jobCtx.Role, jobCtx.RoleDescription)
}

const chatPreamble = "You are a helpful assistant specializing in resume writing, job search, career advice, and interview preparation. Provide concise, actionable advice."

// buildChatPrompt concatenates the fixed preamble, the role-labeled
// prior transcript, and the new user turn into a single prompt.
func buildChatPrompt(transcript []domain.ChatTurn, input string) string {
	if len(transcript) == 0 {
		return fmt.Sprintf("%s\n\nUser: %s", chatPreamble, input)
	}

	lines := make([]string, 0, len(transcript))
	for _, turn := range transcript {
		lines = append(lines, fmt.Sprintf("%s: %s", turn.Role, turn.Content))
	}
	return fmt.Sprintf("%s\n\nConversation history:\n%s\n\nUser: %s", chatPreamble, strings.Join(lines, "\n"), input)
}
