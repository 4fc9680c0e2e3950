package entity

import (
	"path"
	"strings"
	"time"
)

// BlacklistRule excludes matching emails from CRM forwarding. A pattern is
// either an exact address ("spam@foo.com"), a domain suffix ("@test.com"),
// or a wildcard pattern ("*@test.*").
type BlacklistRule struct {
	ID        int       `json:"id"`
	Pattern   string    `json:"pattern"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *BlacklistRule) Matches(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	pattern := strings.ToLower(strings.TrimSpace(r.Pattern))

	if pattern == "" || email == "" {
		return false
	}

	if strings.Contains(pattern, "*") {
		ok, err := path.Match(pattern, email)
		return err == nil && ok
	}

	if strings.HasPrefix(pattern, "@") {
		return strings.HasSuffix(email, pattern)
	}

	return email == pattern
}
