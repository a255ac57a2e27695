// Package domain contains entity without logic, just meta-data
package domain

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

type IdentityKind string

const (
	KindAuthenticated IdentityKind = "authenticated"
	KindGuest         IdentityKind = "guest"
)

// GuestDisplayName is what everyone sees for an anonymous connection.
const GuestDisplayName = "Invité"

// Identity is the principal behind one connection. Guest is an explicit
// variant so every guest-path decision is visible at the call site, never
// a nil check on a user field.
type Identity struct {
	Kind        IdentityKind `json:"kind"`
	UserID      string       `json:"user_id,omitempty"`
	DisplayName string       `json:"display_name"`
	Role        Role         `json:"role,omitempty"`
}

// Authenticated builds the identity of a verified user.
func Authenticated(userID, displayName string, role Role) Identity {
	return Identity{
		Kind:        KindAuthenticated,
		UserID:      userID,
		DisplayName: displayName,
		Role:        role,
	}
}

// Guest builds the anonymous identity. Transports must never reject a
// connection for lacking credentials; they degrade to this.
func Guest() Identity {
	return Identity{Kind: KindGuest, DisplayName: GuestDisplayName}
}

func (i Identity) IsGuest() bool { return i.Kind == KindGuest }
