package domain

// ============================================================
// Auth — Request / Response types (matches portal API contract)
// ============================================================

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the body for POST /v1/auth/signup.
type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ChangePasswordRequest is the body for PUT /v1/auth/password.
type ChangePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// Account is the authentication-layer view of a user, as returned by
// the identity provider. It is distinct from the Employee directory row.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated session against the identity provider.
type Session struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresIn    int     `json:"expiresIn"`
	Account      Account `json:"account"`
}

// SessionEventType describes auth state transitions observed by the
// session watcher.
type SessionEventType string

const (
	SessionSignedIn  SessionEventType = "SIGNED_IN"
	SessionSignedOut SessionEventType = "SIGNED_OUT"
)

// SessionEvent is emitted whenever the auth state changes. Session is
// nil for SIGNED_OUT events.
type SessionEvent struct {
	Type    SessionEventType
	Session *Session
}
