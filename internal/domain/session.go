package domain

type SessionStatus string

const (
	StatusWaiting SessionStatus = "waiting"
	StatusLive    SessionStatus = "live"
	StatusEnded   SessionStatus = "ended"
)

type GuestPolicy string

const (
	GuestsDenied  GuestPolicy = "denied"
	GuestsAllowed GuestPolicy = "allowed"
)

// Session is the externally persisted record a live room is keyed on.
// It outlives the in-memory room and survives process restarts.
type Session struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Status       SessionStatus `json:"status"`
	TeacherID    string        `json:"teacher_id"`
	Participants []string      `json:"participants"`
	PasswordHash string        `json:"password_hash,omitempty"` // empty means no password
	GuestPolicy  GuestPolicy   `json:"guest_policy"`
	OpenAccess   bool          `json:"open_access"` // any authenticated user may join
}

// Joinable reports whether the session still accepts members.
func (s *Session) Joinable() bool {
	return s.Status == StatusLive || s.Status == StatusWaiting
}

// Authorizes reports whether userID may join. The teacher always may;
// otherwise the user must be on the participant list unless the session
// is open to everyone.
func (s *Session) Authorizes(userID string) bool {
	if s.OpenAccess || userID == s.TeacherID {
		return true
	}
	for _, p := range s.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// AllowsGuests reports whether anonymous connections may join.
func (s *Session) AllowsGuests() bool { return s.GuestPolicy == GuestsAllowed }
