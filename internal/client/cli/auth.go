package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/otpauth/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for username, email, password and an optional role, then
// creates the account. Registration does not sign the user in.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(password)

	role, err := getSimpleText(a.reader, "Enter role (employee/manager, empty for employee)", a.out)
	if err != nil {
		return err
	}

	user, err := a.authService.Register(ctx, username, email, password, role)
	if err != nil {
		return a.fail(err)
	}

	fmt.Fprintf(a.out, "User %s registered. You can now log in.\n", user.Username)
	return nil
}

// Login checks the password, then asks for the emailed OTP and stores the
// resulting session.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(password)

	sentTo, err := a.authService.Login(ctx, email, password)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "OTP has been sent to %s. Please verify.\n", sentTo)

	code, err := getSimpleText(a.reader, "Enter OTP", a.out)
	if err != nil {
		return err
	}

	sess, err := a.authService.VerifyOTP(ctx, sentTo, code)
	if err != nil {
		return a.fail(err)
	}

	fmt.Fprintf(a.out, "Login successful! Welcome, %s.\n", sess.User.Username)
	return nil
}

// Forgot runs the password reset flow: request a code, then submit it with
// the new password.
func (a *App) Forgot(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	if err := a.authService.ForgotPassword(ctx, email); err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "OTP has been sent to %s.\n", email)

	code, err := getSimpleText(a.reader, "Enter OTP", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Enter new password")
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(password)

	if err := a.authService.ResetPassword(ctx, email, code, password); err != nil {
		return a.fail(err)
	}

	fmt.Fprintln(a.out, "Password has been reset. You can now log in.")
	return nil
}

// Dashboard is the protected view: it needs an unexpired session and the
// server's confirmation of the token.
func (a *App) Dashboard(ctx context.Context) error {
	user, err := a.authService.CurrentUser(ctx)
	if err != nil {
		return a.fail(err)
	}

	fmt.Fprintf(a.out, "Welcome, %s!\nEmail: %s\nRole:  %s\n", user.Username, user.Email, user.Role)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
