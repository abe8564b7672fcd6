package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/resume-insight/internal/core/domain"
)

// extractText pulls the textual payload out of a provider response:
// the plain content when set, otherwise the first typed block of
// type "text".
func extractText(resp *domain.ProviderResponse) (string, error) {
	if resp == nil {
		return "", domain.WrapError(domain.ErrMalformedResponse, "extract text", errors.New("nil response"))
	}
	if resp.Message.Content != "" {
		return resp.Message.Content, nil
	}
	for _, block := range resp.Message.Blocks {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", domain.WrapError(domain.ErrMalformedResponse, "extract text", errors.New("response carries no textual content"))
}

// stripCodeFences removes a leading ``` marker (with optional language
// tag) and a trailing ``` marker plus surrounding whitespace. Applying
// it to already-clean text is a no-op.
func stripCodeFences(text string) string {
	out := strings.TrimSpace(text)
	if strings.HasPrefix(out, "```") {
		out = out[3:]
		if idx := strings.IndexByte(out, '\n'); idx >= 0 && isFenceTag(out[:idx]) {
			out = out[idx+1:]
		} else if tag := gluedFenceTag(out); tag != "" {
			out = out[len(tag):]
		}
	}
	out = strings.TrimSpace(out)
	out = strings.TrimSuffix(out, "```")
	return strings.TrimSpace(out)
}

// gluedFenceTag detects a language tag written with no newline before
// the payload, as in "```json{...}". The alphanumeric run counts as a
// tag only when JSON follows it directly; otherwise it is content.
func gluedFenceTag(s string) string {
	i := 0
	for i < len(s) && isAlnumByte(s[i]) {
		i++
	}
	if i == 0 || i >= len(s) {
		return ""
	}
	if s[i] == '{' || s[i] == '[' {
		return s[:i]
	}
	return ""
}

func isAlnumByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func isFenceTag(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	for _, r := range line {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// feedbackShadow mirrors domain.Feedback with pointer fields so absent
// keys are distinguishable from zero values.
type feedbackShadow struct {
	OverallScore         *int            `json:"overallScore"`
	StructuralCompliance *categoryShadow `json:"structuralCompliance"`
	Tone                 *categoryShadow `json:"tone"`
	ContentQuality       *categoryShadow `json:"contentQuality"`
	Organization         *categoryShadow `json:"organization"`
	SkillsAlignment      *categoryShadow `json:"skillsAlignment"`
}

type categoryShadow struct {
	Score *int          `json:"score"`
	Tips  *[]domain.Tip `json:"tips"`
}

// parseFeedback sanitizes a provider's textual output and decodes it
// into a Feedback value, failing with the malformed-response kind when
// decoding fails or any required field is absent.
func parseFeedback(resp *domain.ProviderResponse) (domain.Feedback, error) {
	text, err := extractText(resp)
	if err != nil {
		return domain.Feedback{}, err
	}
	cleaned := stripCodeFences(text)

	var shadow feedbackShadow
	if err := json.Unmarshal([]byte(cleaned), &shadow); err != nil {
		return domain.Feedback{}, domain.WrapError(domain.ErrMalformedResponse, "decode feedback", err)
	}

	if shadow.OverallScore == nil {
		return domain.Feedback{}, missingField("overallScore")
	}
	categories := []struct {
		name   string
		shadow *categoryShadow
	}{
		{"structuralCompliance", shadow.StructuralCompliance},
		{"tone", shadow.Tone},
		{"contentQuality", shadow.ContentQuality},
		{"organization", shadow.Organization},
		{"skillsAlignment", shadow.SkillsAlignment},
	}
	for _, entry := range categories {
		if entry.shadow == nil {
			return domain.Feedback{}, missingField(entry.name)
		}
		if entry.shadow.Score == nil {
			return domain.Feedback{}, missingField(entry.name + ".score")
		}
		if entry.shadow.Tips == nil {
			return domain.Feedback{}, missingField(entry.name + ".tips")
		}
	}

	feedback := domain.Feedback{
		OverallScore:         *shadow.OverallScore,
		StructuralCompliance: materialize(shadow.StructuralCompliance),
		Tone:                 materialize(shadow.Tone),
		ContentQuality:       materialize(shadow.ContentQuality),
		Organization:         materialize(shadow.Organization),
		SkillsAlignment:      materialize(shadow.SkillsAlignment),
	}
	if err := feedback.Validate(); err != nil {
		return domain.Feedback{}, domain.WrapError(domain.ErrMalformedResponse, "validate feedback", err)
	}
	return feedback, nil
}

func materialize(shadow *categoryShadow) domain.Category {
	return domain.Category{Score: *shadow.Score, Tips: *shadow.Tips}
}

func missingField(name string) error {
	return domain.WrapError(domain.ErrMalformedResponse, "decode feedback", fmt.Errorf("missing required field %q", name))
}
