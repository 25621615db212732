// Package scoring computes the derived 0-100 lead score with an itemized
// reasoning trail. ComputeScore is deterministic and side-effect-free; the
// service persists a result only on explicit recalculation, never
// implicitly on writes.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crm_portal_backend/internal/requests/domain"
	"crm_portal_backend/internal/requests/repository"
	"crm_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	pointsPerService     = 10
	detailedMessageBonus = 15
	companyBonus         = 20
	pointsPerKeywordHit  = 5
	stalePenalty         = 10

	detailedMessageThreshold = 50
	staleAfter               = 14 * 24 * time.Hour
)

// intentKeywords are matched case-insensitively as substrings, in this
// fixed order so the reasoning trail is reproducible.
var intentKeywords = []string{"urgent", "budget", "quote", "timeline", "asap"}

// ComputeScore applies the scoring rules in fixed order and clamps the
// result to [0,100]. The reasoning lists exactly the rules that fired,
// in rule order, with the literal point delta each contributed.
func ComputeScore(req repository.Request, now time.Time) (int, []string) {
	score := 0
	reasoning := make([]string, 0, 5)

	if n := len(req.SelectedServices); n > 0 {
		delta := pointsPerService * n
		score += delta
		reasoning = append(reasoning, fmt.Sprintf("+%d: %d selected service(s)", delta, n))
	}

	if len(req.Message) > detailedMessageThreshold {
		score += detailedMessageBonus
		reasoning = append(reasoning, fmt.Sprintf("+%d: detailed message (over %d characters)", detailedMessageBonus, detailedMessageThreshold))
	}

	if req.Company != nil && strings.TrimSpace(*req.Company) != "" {
		score += companyBonus
		reasoning = append(reasoning, fmt.Sprintf("+%d: company name provided", companyBonus))
	}

	if hits, matched := countKeywordHits(req.Message); hits > 0 {
		delta := pointsPerKeywordHit * hits
		score += delta
		reasoning = append(reasoning, fmt.Sprintf("+%d: intent keyword(s) found: %s", delta, strings.Join(matched, ", ")))
	}

	if req.Status == domain.StatusServiceSelectionPending && now.Sub(req.CreatedAt) > staleAfter {
		score -= stalePenalty
		reasoning = append(reasoning, fmt.Sprintf("-%d: idle in service selection for over 14 days", stalePenalty))
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, reasoning
}

// countKeywordHits counts case-insensitive substring occurrences of each
// intent keyword, returning the total and the keywords that matched in
// their canonical order.
func countKeywordHits(message string) (int, []string) {
	lowered := strings.ToLower(message)
	total := 0
	matched := make([]string, 0, len(intentKeywords))
	for _, kw := range intentKeywords {
		if n := strings.Count(lowered, kw); n > 0 {
			total += n
			matched = append(matched, kw)
		}
	}
	return total, matched
}

// Service persists recomputed scores on demand.
type Service struct {
	repo repository.ScoreStore
	now  func() time.Time
}

// New creates the scoring service.
func New(repo repository.ScoreStore) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Recalculate recomputes and stores the lead score for a request.
func (s *Service) Recalculate(ctx context.Context, requestID uuid.UUID) (repository.Request, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Request{}, apperr.NotFound("request not found")
		}
		return repository.Request{}, apperr.Unavailable("could not load request", err)
	}

	score, reasoning := ComputeScore(req, s.now())

	updated, err := s.repo.UpdateScore(ctx, requestID, score, reasoning)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Request{}, apperr.NotFound("request not found")
		}
		return repository.Request{}, apperr.Unavailable("could not store score", err)
	}
	return updated, nil
}
