// Package client talks to the auth API over HTTP.
//
// HTTPClient implements Client. Non-2xx responses surface as *APIError
// carrying the server's message; a 401 additionally matches ErrUnauthorized
// and transport failures match ErrUnavailable, so callers can branch with
// errors.Is and errors.As.
package client
