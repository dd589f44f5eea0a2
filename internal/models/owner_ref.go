package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// OwnerRef is either a bare owner id or a loaded owner. Callers that need
// the user must go through User() instead of assuming it was populated.
type OwnerRef struct {
	id   uuid.UUID
	user *User
}

func Reference(id uuid.UUID) OwnerRef {
	return OwnerRef{id: id}
}

func Populated(user *User) OwnerRef {
	if user == nil {
		return OwnerRef{}
	}
	return OwnerRef{id: user.ID, user: user}
}

func (r OwnerRef) ID() uuid.UUID {
	return r.id
}

func (r OwnerRef) User() (*User, bool) {
	return r.user, r.user != nil
}

func (r OwnerRef) IsPopulated() bool {
	return r.user != nil
}

// MarshalJSON emits the id string for a reference and {id,name,email} when populated.
func (r OwnerRef) MarshalJSON() ([]byte, error) {
	if r.user != nil {
		return json.Marshal(r.user.Summary())
	}
	return json.Marshal(r.id)
}
