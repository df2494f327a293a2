// Package cli provides the interactive signup console client.
//
// It wires configuration, the gRPC client and a small REPL. The signup
// command walks the user through one attempt: address, display name and
// password (read without echo), then the verification code mailed by the
// server. While waiting for the code the user may type "resend" to get a
// fresh one or "cancel" to give up.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
