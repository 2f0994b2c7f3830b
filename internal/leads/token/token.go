// Package token generates the opaque public tokens that identify a lead
// on the unauthenticated funnel surface.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// publicTokenBytes gives 32 base64url characters, enough entropy that
// tokens are unguessable without being unwieldy in a share link.
const publicTokenBytes = 24

// GeneratePublicToken returns a URL-safe random token.
func GeneratePublicToken() (string, error) {
	buf := make([]byte, publicTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate public token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
