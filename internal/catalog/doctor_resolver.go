package catalog

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

const (
	// HighConfidenceScore is the minimum best score for fuzzy auto-resolution.
	HighConfidenceScore = 0.82
	// MinScoreMargin is the minimum gap between the top two candidates.
	MinScoreMargin = 0.12
)

const (
	ResolvedByUnique = "unique"
	ResolvedByFuzzy  = "fuzzy"
)

// DoctorResolution is the outcome of a fuzzy doctor lookup. ResolvedID is
// set only when the auto-resolution policy fires; otherwise the caller must
// ask the user to disambiguate among Candidates.
type DoctorResolution struct {
	NeedsQuery bool
	Candidates []DoctorCandidate
	HasMore    bool
	ResolvedID *uuid.UUID
	ResolvedBy string
	Confidence float64
}

// DoctorResolver ranks catalog doctors against a user-supplied name and
// auto-resolves only when one candidate clearly dominates. The two
// thresholds keep similarly-named doctors from being silently conflated.
type DoctorResolver struct {
	repo Repository
}

func NewDoctorResolver(repo Repository) *DoctorResolver {
	return &DoctorResolver{repo: repo}
}

// Resolve searches for query. An empty query flips NeedsQuery so the caller
// can prompt the user; it is not an error.
func (r *DoctorResolver) Resolve(ctx context.Context, query string, pageSize int) (*DoctorResolution, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &DoctorResolution{NeedsQuery: true}, nil
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	// One extra row tells us whether more pages exist.
	candidates, err := r.repo.SearchDoctors(ctx, query, pageSize+1)
	if err != nil {
		return nil, fmt.Errorf("search doctors: %w", err)
	}

	hasMore := len(candidates) > pageSize
	if hasMore {
		candidates = candidates[:pageSize]
	}

	res := &DoctorResolution{Candidates: candidates, HasMore: hasMore}
	if len(candidates) == 0 {
		return res, nil
	}

	if len(candidates) == 1 && !hasMore {
		id := candidates[0].ID
		res.ResolvedID = &id
		res.ResolvedBy = ResolvedByUnique
		res.Confidence = 1
		return res, nil
	}

	best := candidates[0]
	if best.Score >= HighConfidenceScore {
		dominant := len(candidates) < 2 || best.Score-candidates[1].Score >= MinScoreMargin
		if dominant {
			id := best.ID
			res.ResolvedID = &id
			res.ResolvedBy = ResolvedByFuzzy
			res.Confidence = math.Round(best.Score*1000) / 1000
		}
	}

	return res, nil
}
