package grpc

import (
	"context"
	"crypto/subtle"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/signupd/internal/common"
	pb "github.com/dmitrijs2005/signupd/internal/proto"
	"github.com/dmitrijs2005/signupd/internal/server/auth"
)

type ctxKey string

const attemptIDKey ctxKey = "attemptID"

var ticketMethods = map[string]bool{
	pb.SignupService_Confirm_FullMethodName: true,
	pb.SignupService_Resend_FullMethodName:  true,
	pb.SignupService_Cancel_FullMethodName:  true,
}

// ticketInterceptor resolves the signup ticket of follow-up calls into an
// attempt ID stored in the context.
func (s *GRPCServer) ticketInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if ticketMethods[info.FullMethod] {

		var ticket string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(common.TicketHeaderName)
			if len(values) > 0 {
				ticket = values[0]
			}
		}
		if len(ticket) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing ticket")
		}

		attemptID, err := auth.GetAttemptIDFromTicket(ticket, s.jwtSecret)
		if err != nil {
			return nil, toStatus(err)
		}

		ctx = context.WithValue(ctx, attemptIDKey, attemptID)

	}

	return handler(ctx, req)
}

var adminMethods = map[string]bool{
	pb.SignupService_ListAccounts_FullMethodName: true,
}

// adminInterceptor lets operator-only calls through when they carry the
// configured admin token.
func (s *GRPCServer) adminInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if adminMethods[info.FullMethod] {
		if len(s.adminToken) == 0 {
			return nil, status.Error(codes.Unauthenticated, "admin access disabled")
		}

		var token string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(common.AdminTokenHeaderName)
			if len(values) > 0 {
				token = values[0]
			}
		}
		if subtle.ConstantTimeCompare([]byte(token), s.adminToken) != 1 {
			s.logger.Warn(ctx, "admin call refused", "method", info.FullMethod)
			return nil, status.Error(codes.Unauthenticated, "invalid admin token")
		}
	}

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	if code == codes.Internal || code == codes.Unknown {
		s.logger.Error(ctx, "request failed", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start))
	} else {
		s.logger.Debug(ctx, "request served", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start))
	}
	return resp, err
}

func attemptIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(attemptIDKey).(string)
	return id, ok && id != ""
}
