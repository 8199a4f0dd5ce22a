// Package cli provides the interactive command-line client for the auth
// service.
//
// The client keeps its session (token and cached profile) in a local SQLite
// file, so a login survives restarts until the token's exp passes. Commands:
//
//   - register: create an account
//   - login: password, then the emailed OTP; stores the session
//   - forgot: reset the password with an emailed OTP
//   - whoami / dashboard: protected view, requires a live session
//   - logout: drop the stored session
//
// The REPL is started via App.Run, which blocks until the user exits.
package cli
