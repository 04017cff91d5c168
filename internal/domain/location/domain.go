package location

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("location not found")
	ErrCycle    = errors.New("location hierarchy contains a cycle")
)

type Type string

const (
	TypeFacility  Type = "facility"
	TypeSubcounty Type = "subcounty"
	TypeCounty    Type = "county"
	TypeNational  Type = "national"
)

func (t Type) Valid() bool {
	switch t {
	case TypeFacility, TypeSubcounty, TypeCounty, TypeNational:
		return true
	}
	return false
}

// UserRef is the projection of a user needed to alert them.
type UserRef struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type Node struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      Type      `json:"type"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	Users     []UserRef `json:"users,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
