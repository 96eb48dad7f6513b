package types

import "github.com/gofrs/uuid"

// UserContext is the authenticated caller, decoded from the JWT claim.
type UserContext struct {
	UserID      uuid.UUID `json:"uid"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	Permissions []string  `json:"permissions"`
	CreatedDate int64     `json:"createdDate"`
}

// HasPermission reports whether the caller holds the named permission.
func (u UserContext) HasPermission(name string) bool {
	for _, p := range u.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// SeesAll reports whether ownership scoping is bypassed for this caller.
func (u UserContext) SeesAll() bool {
	return u.HasPermission(PermDisableMailing)
}

// Scope returns the record scope for this caller.
func (u UserContext) Scope() Scope {
	return Scope{OwnerID: u.UserID, All: u.SeesAll()}
}

// Scope restricts queries to one owner's records unless All is set.
type Scope struct {
	OwnerID uuid.UUID
	All     bool
}

// OwnerScope returns a scope limited to ownerID.
func OwnerScope(ownerID uuid.UUID) Scope {
	return Scope{OwnerID: ownerID}
}

// Segment is the cache key segment for this scope: "all" or the owner id.
func (s Scope) Segment() string {
	if s.All {
		return "all"
	}
	return s.OwnerID.String()
}

// Allows reports whether a record owned by ownerID is inside the scope.
func (s Scope) Allows(ownerID uuid.UUID) bool {
	return s.All || s.OwnerID == ownerID
}
