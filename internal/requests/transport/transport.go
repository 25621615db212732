// Package transport defines the request and response shapes of the
// requests HTTP surface.
package transport

import (
	"time"

	"crm_portal_backend/internal/requests/domain"
	"crm_portal_backend/internal/requests/repository"

	"github.com/google/uuid"
)

// CreateRequestRequest is the request body for opening a new request.
type CreateRequestRequest struct {
	Message    string  `json:"message" validate:"required,min=1,max=5000"`
	Company    *string `json:"company,omitempty" validate:"omitempty,max=200"`
	OwnerEmail *string `json:"ownerEmail,omitempty" validate:"omitempty,email"`
}

// SubmitServicesRequest is the request body for confirming the service selection.
type SubmitServicesRequest struct {
	Services []string `json:"services" validate:"required,min=1,dive,required,max=200"`
}

// SendQuotationRequest is the request body for attaching a quotation.
// Price travels as a string so the amount survives JSON untouched.
type SendQuotationRequest struct {
	Price   string `json:"price" validate:"required"`
	Details string `json:"details" validate:"required,max=5000"`
}

// RequestChangeRequest is the request body for flagging a change request.
type RequestChangeRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=2000"`
}

// MoveStageRequest is the request body for a pipeline stage move.
type MoveStageRequest struct {
	TargetStage string `json:"targetStage" validate:"required"`
}

// CampaignSelectionRequest is the request body for selecting campaign targets.
type CampaignSelectionRequest struct {
	TargetStatus string `json:"targetStatus" validate:"required"`
}

// ListRequestsQuery is the query parameters for listing requests.
type ListRequestsQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset int    `form:"offset" validate:"omitempty,min=0"`
}

// ListActivitiesQuery is the query parameters for the activity feed.
type ListActivitiesQuery struct {
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	Cursor   string `form:"cursor"`
	Order    string `form:"order" validate:"omitempty,oneof=asc desc"`
}

// RequestResponse is the response body for a request snapshot.
type RequestResponse struct {
	ID                 uuid.UUID  `json:"id"`
	OwnerID            uuid.UUID  `json:"ownerId"`
	OwnerName          string     `json:"ownerName"`
	OwnerEmail         *string    `json:"ownerEmail,omitempty"`
	Company            *string    `json:"company,omitempty"`
	Message            string     `json:"message"`
	Status             string     `json:"status"`
	SelectedServices   []string   `json:"selectedServices"`
	QuotationPrice     *string    `json:"quotationPrice,omitempty"`
	QuotationDetails   *string    `json:"quotationDetails,omitempty"`
	LeadScore          *int       `json:"leadScore,omitempty"`
	LeadScoreReasoning []string   `json:"leadScoreReasoning,omitempty"`
	LastUpdatedBy      string     `json:"lastUpdatedBy"`
	AvailableActions   []string   `json:"availableActions"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// FromRequest maps a stored request to its response shape.
func FromRequest(req repository.Request) RequestResponse {
	resp := RequestResponse{
		ID:                 req.ID,
		OwnerID:            req.OwnerID,
		OwnerName:          req.OwnerName,
		OwnerEmail:         req.OwnerEmail,
		Company:            req.Company,
		Message:            req.Message,
		Status:             string(req.Status),
		SelectedServices:   req.SelectedServices,
		QuotationDetails:   req.QuotationDetails,
		LeadScore:          req.LeadScore,
		LeadScoreReasoning: req.LeadScoreReasoning,
		LastUpdatedBy:      string(req.LastUpdatedBy),
		AvailableActions:   domain.EventsFrom(req.Status),
		CreatedAt:          req.CreatedAt,
		UpdatedAt:          req.UpdatedAt,
	}
	if resp.SelectedServices == nil {
		resp.SelectedServices = []string{}
	}
	if req.QuotationPrice != nil {
		price := req.QuotationPrice.String()
		resp.QuotationPrice = &price
	}
	return resp
}

// FromRequests maps a slice of stored requests.
func FromRequests(items []repository.Request) []RequestResponse {
	out := make([]RequestResponse, len(items))
	for i, req := range items {
		out[i] = FromRequest(req)
	}
	return out
}

// ActivityResponse is the response body for one audit trail entry.
type ActivityResponse struct {
	ID        uuid.UUID `json:"id"`
	RequestID uuid.UUID `json:"requestId"`
	Message   string    `json:"message"`
	ActorID   uuid.UUID `json:"actorId"`
	ActorName string    `json:"actorName"`
	ActorRole string    `json:"actorRole"`
	CreatedAt time.Time `json:"createdAt"`
}

// ActivityPageResponse is one page of the activity feed.
type ActivityPageResponse struct {
	Items      []ActivityResponse `json:"items"`
	NextCursor string             `json:"nextCursor,omitempty"`
}

// FromActivity maps a stored activity to its response shape.
func FromActivity(a repository.Activity) ActivityResponse {
	return ActivityResponse{
		ID:        a.ID,
		RequestID: a.RequestID,
		Message:   a.Message,
		ActorID:   a.ActorID,
		ActorName: a.ActorName,
		ActorRole: a.ActorRole,
		CreatedAt: a.CreatedAt,
	}
}

// FromActivities maps a slice of stored activities.
func FromActivities(items []repository.Activity) []ActivityResponse {
	out := make([]ActivityResponse, len(items))
	for i, a := range items {
		out[i] = FromActivity(a)
	}
	return out
}
