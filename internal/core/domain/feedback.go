package domain

import "fmt"

type TipKind string

const (
	TipPositive    TipKind = "positive"
	TipImprovement TipKind = "improvement"
)

type Tip struct {
	Kind    TipKind `json:"kind"`
	Summary string  `json:"summary"`
	Detail  string  `json:"detail,omitempty"`
}

type Category struct {
	Score int   `json:"score"`
	Tips  []Tip `json:"tips"`
}

// Feedback is the structured evaluation produced by a provider or by
// the fallback substitute. All five categories are always present.
type Feedback struct {
	OverallScore         int      `json:"overallScore"`
	StructuralCompliance Category `json:"structuralCompliance"`
	Tone                 Category `json:"tone"`
	ContentQuality       Category `json:"contentQuality"`
	Organization         Category `json:"organization"`
	SkillsAlignment      Category `json:"skillsAlignment"`
}

// PlaceholderFeedback is the deterministic zero-state a record carries
// between the initial and the final checkpoint.
func PlaceholderFeedback() Feedback {
	empty := func() Category { return Category{Score: 0, Tips: []Tip{}} }
	return Feedback{
		OverallScore:         0,
		StructuralCompliance: empty(),
		Tone:                 empty(),
		ContentQuality:       empty(),
		Organization:         empty(),
		SkillsAlignment:      empty(),
	}
}

type NamedCategory struct {
	Name     string
	Category Category
}

// Categories returns the five category entries in a fixed order.
func (f *Feedback) Categories() []NamedCategory {
	return []NamedCategory{
		{"structuralCompliance", f.StructuralCompliance},
		{"tone", f.Tone},
		{"contentQuality", f.ContentQuality},
		{"organization", f.Organization},
		{"skillsAlignment", f.SkillsAlignment},
	}
}

// Validate checks score bounds and tip kinds across all categories.
func (f *Feedback) Validate() error {
	if f.OverallScore < 0 || f.OverallScore > 100 {
		return fmt.Errorf("overallScore out of range: %d", f.OverallScore)
	}
	for _, entry := range f.Categories() {
		name, category := entry.Name, entry.Category
		if category.Score < 0 || category.Score > 100 {
			return fmt.Errorf("%s score out of range: %d", name, category.Score)
		}
		for _, tip := range category.Tips {
			if tip.Kind != TipPositive && tip.Kind != TipImprovement {
				return fmt.Errorf("%s has unknown tip kind %q", name, tip.Kind)
			}
		}
	}
	return nil
}
