package events

// AuthKind distinguishes sign-in from sign-out notifications.
type AuthKind string

const (
	LoggedIn  AuthKind = "logged_in"
	LoggedOut AuthKind = "logged_out"
)

// AuthUser is the identity carried by a LoggedIn event.
type AuthUser struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// AuthEvent is pushed to a studio whenever its browser signs in or out.
type AuthEvent struct {
	Kind AuthKind  `json:"kind"`
	User *AuthUser `json:"user,omitempty"`
}
