package classify

import (
	"context"

	"github.com/ppiankov/clausewise/internal/model"
)

// ProfileSummary is what a fallback classifier is told about each profile
type ProfileSummary struct {
	ID           string   `json:"id"`
	DocTypeNames []string `json:"doc_type_names"`
	Description  string   `json:"description,omitempty"`
}

// FallbackResult is a secondary classification
type FallbackResult struct {
	PackID     string  `json:"pack_id"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	Mode       string  `json:"-"` // which backend answered, for the reason string
}

// Fallback is consulted when the heuristic score is below the confidence
// threshold. Implementations may block; they are always called with a
// deadline
type Fallback interface {
	Classify(ctx context.Context, excerpt string, profiles []ProfileSummary) (*FallbackResult, error)
}

// FallbackFunc adapts a function to Fallback
type FallbackFunc func(ctx context.Context, excerpt string, profiles []ProfileSummary) (*FallbackResult, error)

func (f FallbackFunc) Classify(ctx context.Context, excerpt string, profiles []ProfileSummary) (*FallbackResult, error) {
	return f(ctx, excerpt, profiles)
}

// Summaries describes profiles in declaration order
func Summaries(profiles []*model.Profile) []ProfileSummary {
	out := make([]ProfileSummary, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, ProfileSummary{
			ID:           p.ID,
			DocTypeNames: append([]string(nil), p.DocTypeNames...),
			Description:  p.Description,
		})
	}
	return out
}
