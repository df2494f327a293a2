package common

// TicketHeaderName is the gRPC metadata key carrying the signup ticket
// returned by Start on follow-up calls (Confirm, Resend, Cancel).
const TicketHeaderName = "signup_ticket"

// CodeLength is the number of digits in a verification code.
const CodeLength = 6

// AdminTokenHeaderName is the gRPC metadata key carrying the operator token
// required by ListAccounts.
const AdminTokenHeaderName = "admin_token"
