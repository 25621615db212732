// Package audit provides read and append access to a request's activity
// trail. The trail is append-only: the public contract has no update or
// delete, and ordering is total (created_at with id as tie-break).
package audit

import (
	"context"
	"errors"

	"crm_portal_backend/internal/requests/domain"
	"crm_portal_backend/internal/requests/repository"
	"crm_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// Repository is the data access needed by the audit log.
type Repository interface {
	repository.ActivityAppender
	repository.ActivityReader
}

// Service exposes the audit log operations.
type Service struct {
	repo Repository
}

// New creates the audit log service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Append records an activity on an existing request. Fails with NotFound
// when the parent request does not exist.
func (s *Service) Append(ctx context.Context, requestID uuid.UUID, message string, actor domain.Actor) (repository.Activity, error) {
	activity, err := s.repo.AppendActivity(ctx, repository.AppendActivityParams{
		RequestID: requestID,
		Message:   message,
		ActorID:   actor.ID,
		ActorName: actor.DisplayName,
		ActorRole: string(actor.Role),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Activity{}, apperr.NotFound("request not found")
		}
		return repository.Activity{}, apperr.Unavailable("could not append activity", err)
	}
	return activity, nil
}

// List returns one page of the newest-first feed, restartable from cursor.
func (s *Service) List(ctx context.Context, requestID uuid.UUID, pageSize int, cursor string) (repository.ActivityPage, error) {
	page, err := s.repo.ListActivitiesDesc(ctx, requestID, pageSize, cursor)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return repository.ActivityPage{}, apperr.Validation("invalid cursor")
		}
		return repository.ActivityPage{}, apperr.Unavailable("could not list activities", err)
	}
	return page, nil
}

// ListFull returns the complete history oldest first.
func (s *Service) ListFull(ctx context.Context, requestID uuid.UUID) ([]repository.Activity, error) {
	items, err := s.repo.ListActivitiesAsc(ctx, requestID)
	if err != nil {
		return nil, apperr.Unavailable("could not list activities", err)
	}
	return items, nil
}
