package scoring

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"crm_portal_backend/internal/requests/domain"
	"crm_portal_backend/internal/requests/repository"
	"crm_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

func TestComputeScoreQualifiedLead(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	req := repository.Request{
		SelectedServices: []string{"Web Development", "SEO"},
		Message:          "We urgently need a new storefront before the festival season.",
		Company:          strPtr("Acme Textiles"),
		Status:           domain.StatusQuotationSent,
		CreatedAt:        now.Add(-48 * time.Hour),
	}
	if len(req.Message) <= 50 {
		t.Fatalf("fixture message must exceed 50 characters, got %d", len(req.Message))
	}

	score, reasoning := ComputeScore(req, now)

	if score != 60 {
		t.Fatalf("score = %d, want 60", score)
	}
	want := []string{
		"+20: 2 selected service(s)",
		"+15: detailed message (over 50 characters)",
		"+20: company name provided",
		"+5: intent keyword(s) found: urgent",
	}
	if !reflect.DeepEqual(reasoning, want) {
		t.Fatalf("reasoning = %v, want %v", reasoning, want)
	}
}

func TestComputeScoreEmptyRequest(t *testing.T) {
	now := time.Now()
	req := repository.Request{
		Message:   "short note",
		Status:    domain.StatusQuotationSent,
		CreatedAt: now.Add(-time.Hour),
	}

	score, reasoning := ComputeScore(req, now)
	if score != 0 {
		t.Fatalf("score = %d, want 0", score)
	}
	if len(reasoning) != 0 {
		t.Fatalf("reasoning = %v, want empty", reasoning)
	}
}

func TestComputeScoreClampsToHundred(t *testing.T) {
	now := time.Now()
	req := repository.Request{
		SelectedServices: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"},
		Message:          strings.Repeat("we need this urgent asap with a budget and timeline ", 2),
		Company:          strPtr("Globex"),
		Status:           domain.StatusProjectApproved,
		CreatedAt:        now.Add(-time.Hour),
	}

	score, _ := ComputeScore(req, now)
	if score != 100 {
		t.Fatalf("score = %d, want 100", score)
	}
}

func TestComputeScoreClampsToZero(t *testing.T) {
	now := time.Now()
	req := repository.Request{
		Message:   "hello",
		Status:    domain.StatusServiceSelectionPending,
		CreatedAt: now.Add(-15 * 24 * time.Hour),
	}

	score, reasoning := ComputeScore(req, now)
	if score != 0 {
		t.Fatalf("score = %d, want 0", score)
	}
	want := []string{"-10: idle in service selection for over 14 days"}
	if !reflect.DeepEqual(reasoning, want) {
		t.Fatalf("reasoning = %v, want %v", reasoning, want)
	}
}

func TestComputeScoreStalePenaltyScope(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name      string
		status    domain.Status
		age       time.Duration
		penalized bool
	}{
		{"pending and stale", domain.StatusServiceSelectionPending, 15 * 24 * time.Hour, true},
		{"pending but fresh", domain.StatusServiceSelectionPending, 13 * 24 * time.Hour, false},
		{"stale but progressed", domain.StatusQuotationSent, 30 * 24 * time.Hour, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := repository.Request{
				Company:   strPtr("Initech"),
				Message:   "hi",
				Status:    tc.status,
				CreatedAt: now.Add(-tc.age),
			}
			score, _ := ComputeScore(req, now)
			want := 20
			if tc.penalized {
				want = 10
			}
			if score != want {
				t.Fatalf("score = %d, want %d", score, want)
			}
		})
	}
}

func TestComputeScoreKeywordOccurrences(t *testing.T) {
	now := time.Now()
	req := repository.Request{
		Message:   "URGENT: urgent delivery, Budget fixed, quote",
		Status:    domain.StatusQuotationSent,
		CreatedAt: now.Add(-time.Hour),
	}
	if len(req.Message) > 50 {
		t.Fatalf("fixture message must stay under 50 characters, got %d", len(req.Message))
	}

	score, reasoning := ComputeScore(req, now)
	// urgent twice, budget once, quote once.
	if score != 25 {
		t.Fatalf("score = %d, want 25", score)
	}
	if len(reasoning) != 2 {
		t.Fatalf("reasoning = %v, want 2 entries", reasoning)
	}
	if reasoning[1] != "+20: intent keyword(s) found: urgent, budget, quote" {
		t.Fatalf("keyword reasoning = %q", reasoning[1])
	}
}

func TestComputeScoreDeterministic(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	req := repository.Request{
		SelectedServices: []string{"Branding"},
		Message:          "Looking for a full rebrand, asap, with a clear project timeline.",
		Company:          strPtr("Umbrella"),
		Status:           domain.StatusRevisionRequested,
		CreatedAt:        now.Add(-72 * time.Hour),
	}

	score1, reasons1 := ComputeScore(req, now)
	score2, reasons2 := ComputeScore(req, now)
	if score1 != score2 || !reflect.DeepEqual(reasons1, reasons2) {
		t.Fatalf("results differ: (%d, %v) vs (%d, %v)", score1, reasons1, score2, reasons2)
	}
}

type fakeScoreStore struct {
	req repository.Request

	updatedID        uuid.UUID
	updatedScore     int
	updatedReasoning []string
	getErr           error
}

func (f *fakeScoreStore) GetByID(_ context.Context, id uuid.UUID) (repository.Request, error) {
	if f.getErr != nil {
		return repository.Request{}, f.getErr
	}
	if id != f.req.ID {
		return repository.Request{}, repository.ErrNotFound
	}
	return f.req, nil
}

func (f *fakeScoreStore) UpdateScore(_ context.Context, id uuid.UUID, score int, reasoning []string) (repository.Request, error) {
	f.updatedID = id
	f.updatedScore = score
	f.updatedReasoning = reasoning
	updated := f.req
	updated.LeadScore = &score
	updated.LeadScoreReasoning = reasoning
	return updated, nil
}

func TestRecalculatePersistsScore(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeScoreStore{
		req: repository.Request{
			ID:               uuid.New(),
			SelectedServices: []string{"Web Development", "SEO"},
			Message:          "We urgently need a new storefront before the festival season.",
			Company:          strPtr("Acme Textiles"),
			Status:           domain.StatusQuotationSent,
			CreatedAt:        now.Add(-48 * time.Hour),
		},
	}

	svc := New(store)
	svc.now = func() time.Time { return now }

	updated, err := svc.Recalculate(context.Background(), store.req.ID)
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if store.updatedID != store.req.ID {
		t.Fatalf("persisted id = %s, want %s", store.updatedID, store.req.ID)
	}
	if store.updatedScore != 60 {
		t.Fatalf("persisted score = %d, want 60", store.updatedScore)
	}
	if len(store.updatedReasoning) != 4 {
		t.Fatalf("persisted reasoning = %v, want 4 entries", store.updatedReasoning)
	}
	if updated.LeadScore == nil || *updated.LeadScore != 60 {
		t.Fatalf("returned request score = %v, want 60", updated.LeadScore)
	}
}

func TestRecalculateUnknownRequest(t *testing.T) {
	store := &fakeScoreStore{req: repository.Request{ID: uuid.New()}}
	svc := New(store)

	_, err := svc.Recalculate(context.Background(), uuid.New())
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("kind = %v, want KindNotFound", apperr.GetKind(err))
	}
}
