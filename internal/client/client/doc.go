// Package client talks to the signupd gRPC API on behalf of the console
// client.
//
// # Overview
//
// GRPCClient drives one signup at a time: Start stores the ticket returned
// by the server and an interceptor attaches it to Confirm, Resend and Cancel.
// Resend replaces the ticket, since the old one expires with the old code.
//
// # Error Handling
//
// Status codes whose message is one of the common sentinel errors are
// mapped back to that sentinel, so callers can use errors.Is with
// common.ErrCodeMismatch, common.ErrVerificationExpired and friends.
// Transport problems become ErrUnavailable.
package client
