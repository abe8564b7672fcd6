package usecase

import "github.com/kirillkom/resume-insight/internal/core/domain"

// FallbackFeedbackVersion identifies the current demo feedback value.
// Bump it whenever the content below changes so persisted records can
// be told apart from older substitutes.
const FallbackFeedbackVersion = "demo-feedback/v1"

// FallbackFeedback is the fixed, schema-complete evaluation substituted
// when no provider yields a usable result. Returns a fresh value each
// call so callers can never mutate the default.
func FallbackFeedback() domain.Feedback {
	return domain.Feedback{
		OverallScore: 78,
		StructuralCompliance: domain.Category{
			Score: 82,
			Tips: []domain.Tip{
				{Kind: domain.TipPositive, Summary: "Clear contact information and professional formatting"},
				{Kind: domain.TipImprovement, Summary: "Add more industry-specific keywords from the job description"},
			},
		},
		Tone: domain.Category{
			Score: 75,
			Tips: []domain.Tip{
				{Kind: domain.TipPositive, Summary: "Professional tone", Detail: "The document maintains appropriate professional language throughout."},
				{Kind: domain.TipImprovement, Summary: "Stronger action verbs", Detail: "Replace passive phrases with powerful action verbs like 'spearheaded', 'orchestrated', 'pioneered'."},
			},
		},
		ContentQuality: domain.Category{
			Score: 77,
			Tips: []domain.Tip{
				{Kind: domain.TipPositive, Summary: "Experience listed", Detail: "Work history is clearly documented with company names and dates."},
				{Kind: domain.TipImprovement, Summary: "Quantify achievements", Detail: "Add specific metrics and numbers to demonstrate impact (e.g., 'Increased sales by 25%')."},
			},
		},
		Organization: domain.Category{
			Score: 83,
			Tips: []domain.Tip{
				{Kind: domain.TipPositive, Summary: "Clear section organization", Detail: "The document has well-defined sections that are easy to navigate."},
				{Kind: domain.TipImprovement, Summary: "Consistent formatting", Detail: "Ensure uniform font sizes, bullet styles, and spacing throughout."},
			},
		},
		SkillsAlignment: domain.Category{
			Score: 72,
			Tips: []domain.Tip{
				{Kind: domain.TipPositive, Summary: "Technical skills listed", Detail: "Good variety of relevant technical skills mentioned."},
				{Kind: domain.TipImprovement, Summary: "Align with job requirements", Detail: "Prioritize skills that match the target job description more closely."},
			},
		},
	}
}
