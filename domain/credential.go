// Package domain contains the core concepts shared by the chat client and
// the reference backend.
package domain

// Credential is the bearer token plus the cached display name of the
// authenticated member. It is either complete or absent, never half set.
type Credential struct {
	Token       string
	DisplayName string
}

// Complete reports whether both fields are set.
func (c Credential) Complete() bool {
	return c.Token != "" && c.DisplayName != ""
}
