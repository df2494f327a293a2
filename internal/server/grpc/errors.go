package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/signupd/internal/common"
)

var statusCodes = []struct {
	err  error
	code codes.Code
}{
	{common.ErrInvalidAddress, codes.InvalidArgument},
	{common.ErrPasswordMismatch, codes.InvalidArgument},
	{common.ErrAlreadyRegistered, codes.AlreadyExists},
	{common.ErrConflict, codes.AlreadyExists},
	{common.ErrCodeMismatch, codes.PermissionDenied},
	{common.ErrTooManyAttempts, codes.ResourceExhausted},
	{common.ErrVerificationExpired, codes.FailedPrecondition},
	{common.ErrSessionClosed, codes.NotFound},
	{common.ErrVerificationUnavailable, codes.Unavailable},
	{common.ErrStoreUnavailable, codes.Unavailable},
	{common.ErrInvalidToken, codes.Unauthenticated},
}

// toStatus converts a service error to a gRPC status whose message is the
// sentinel text, so clients can recover the sentinel. Details of unexpected
// errors are not sent.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return status.Error(sc.code, sc.err.Error())
		}
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, common.ErrorInternal.Error())
}
