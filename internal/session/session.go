// Package session carries the authentication context of one dashboard page
// load. Components that call authenticated services receive a TokenSource
// instead of reading a token from ambient state.
package session

import (
	"strings"
	"time"
)

// TokenSource yields the bearer token for outbound authenticated calls.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource with a fixed value.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Profile is the user returned by the profile service.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is one page load.
type Session struct {
	ID        string
	CreatedAt time.Time

	token   string
	profile *Profile
}

// New creates a session. A session is authenticated only when both a token
// and a verified profile are present.
func New(id, token string, profile *Profile) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		token:     strings.TrimSpace(token),
		profile:   profile,
	}
}

func (s *Session) Token() string { return s.token }

// Profile returns a copy of the verified profile, or nil.
func (s *Session) Profile() *Profile {
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

func (s *Session) Authenticated() bool {
	return s.token != "" && s.profile != nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
