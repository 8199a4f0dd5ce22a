// Package models holds client-side views of server data.
package models

// User is the public profile returned by the server after a successful
// second factor.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
