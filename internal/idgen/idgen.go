// Package idgen issues the X-Request-ID values attached to every HTTP
// request. Ids are short nanoids so they stay readable in log lines.
package idgen

import (
	"fmt"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Prefix marks ids minted by the server, as opposed to ids a client sent.
	Prefix = "req-"

	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	size     = 10

	// maxIncoming bounds ids accepted from clients.
	maxIncoming = 64
)

// New returns a fresh request id.
func New() (string, error) {
	id, err := nanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return Prefix + id, nil
}

// ForRequest keeps a client-supplied id if it is non-empty, at most 64
// bytes and printable ASCII without spaces. Otherwise it mints one. It
// never fails; if the random source errors it returns Prefix+"unknown".
func ForRequest(incoming string) string {
	incoming = strings.TrimSpace(incoming)
	if acceptable(incoming) {
		return incoming
	}
	id, err := New()
	if err != nil {
		return Prefix + "unknown"
	}
	return id
}

func acceptable(id string) bool {
	if id == "" || len(id) > maxIncoming {
		return false
	}
	return strings.IndexFunc(id, func(r rune) bool { return r < '!' || r > '~' }) < 0
}
