package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/signupd/internal/client/client"
	"github.com/dmitrijs2005/signupd/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

const (
	cmdResend = "resend"
	cmdCancel = "cancel"
)

// Signup collects the address, display name and password, starts an attempt
// and then reads verification codes until the account is created, the
// attempt ends or the user cancels.
func (a *App) Signup(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	name, err := getSimpleText(a.reader, "Enter display name", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword("Repeat password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	rctx, cancel := a.requestCtx(ctx)
	res, err := a.client.Start(rctx, email, string(password), string(confirm), name)
	cancel()
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "A verification code was sent to %s. It is valid until %s.\n", email, formatDeadline(res.ExpiresAt))

	return a.confirmLoop(ctx)
}

func (a *App) confirmLoop(ctx context.Context) error {
	for {
		input, err := getSimpleText(a.reader, "Enter verification code ('resend' for a new one, 'cancel' to stop)", a.out)
		if err != nil {
			_ = a.cancelAttempt(context.WithoutCancel(ctx))
			return err
		}

		switch input {
		case "":
			continue

		case cmdCancel:
			if err := a.cancelAttempt(ctx); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signup cancelled.")
			return nil

		case cmdResend:
			rctx, cancel := a.requestCtx(ctx)
			expiresAt, err := a.client.Resend(rctx)
			cancel()
			if err != nil {
				if canRetry(err) {
					fmt.Fprintf(a.out, "Could not send a new code: %v\n", err)
					continue
				}
				return err
			}
			fmt.Fprintf(a.out, "A new code was sent. It is valid until %s.\n", formatDeadline(expiresAt))

		default:
			rctx, cancel := a.requestCtx(ctx)
			accountID, err := a.client.Confirm(rctx, input)
			cancel()
			if err == nil {
				fmt.Fprintf(a.out, "Account created: %s\n", accountID)
				return nil
			}
			if canRetry(err) {
				fmt.Fprintf(a.out, "%v, try again.\n", err)
				continue
			}
			return err
		}
	}
}

func (a *App) cancelAttempt(ctx context.Context) error {
	rctx, cancel := a.requestCtx(ctx)
	defer cancel()
	return a.client.Cancel(rctx)
}

// canRetry reports whether the attempt is still open after err.
func canRetry(err error) bool {
	return errors.Is(err, common.ErrCodeMismatch) ||
		errors.Is(err, common.ErrVerificationUnavailable) ||
		errors.Is(err, client.ErrUnavailable)
}

func formatDeadline(t time.Time) string {
	return t.Local().Format("15:04:05")
}
