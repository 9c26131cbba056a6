// Package admin gates every settings or limit mutation behind the shared
// administrator password. There is deliberately no hashing, lockout or
// throttling here: any holder of the secret is "the admin".
package admin

import "errors"

// ErrInvalidPassword is returned by every gated operation when the supplied
// secret does not match. Callers must not mutate any state after seeing it.
var ErrInvalidPassword = errors.New("invalid admin password")

type Gate struct {
	password string
}

func NewGate(password string) *Gate {
	return &Gate{password: password}
}

// Authorize reports whether secret matches the configured admin password.
func (g *Gate) Authorize(secret string) bool {
	return secret == g.password
}
