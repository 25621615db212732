package domain

import "github.com/google/uuid"

// Actor is the caller of a mutating operation, as supplied by the identity
// collaborator. It is passed explicitly into every core operation; there
// is no ambient session state.
type Actor struct {
	ID          uuid.UUID
	DisplayName string
	Role        Role
}
