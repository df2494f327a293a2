package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	pb "github.com/dmitrijs2005/signupd/internal/proto"
	"github.com/dmitrijs2005/signupd/internal/server/auth"
	"github.com/dmitrijs2005/signupd/internal/server/services"
)

func (s *GRPCServer) Start(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	email := pb.StringField(req, pb.FieldEmail)
	s.logger.Info(ctx, "Signup request", "email", email)

	attempt, err := s.signup.Begin(ctx, services.Request{
		Email:           email,
		Password:        pb.StringField(req, pb.FieldPassword),
		ConfirmPassword: pb.StringField(req, pb.FieldConfirmPassword),
		Name:            pb.StringField(req, pb.FieldName),
	})
	if err != nil {
		s.logger.Info(ctx, "Signup rejected", "email", email, "error", err)
		return nil, toStatus(err)
	}

	ticket, err := auth.GenerateTicket(attempt.ID, s.jwtSecret, attempt.ExpiresAt())
	if err != nil {
		s.logger.Error(ctx, "ticket signing failed", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	return structpb.NewStruct(map[string]any{
		pb.FieldAttemptID: attempt.ID,
		pb.FieldTicket:    ticket,
		pb.FieldExpiresAt: attempt.ExpiresAt().UTC().Format(time.RFC3339),
	})
}

func (s *GRPCServer) Confirm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	attemptID, ok := attemptIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing ticket")
	}

	accountID, err := s.signup.Confirm(ctx, attemptID, pb.StringField(req, pb.FieldCode))
	if err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "account_id", accountID)
	return structpb.NewStruct(map[string]any{pb.FieldAccountID: accountID})
}

func (s *GRPCServer) Resend(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {

	attemptID, ok := attemptIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing ticket")
	}

	expiresAt, err := s.signup.Resend(ctx, attemptID)
	if err != nil {
		return nil, toStatus(err)
	}

	// the old ticket expires with the old code
	ticket, err := auth.GenerateTicket(attemptID, s.jwtSecret, expiresAt)
	if err != nil {
		s.logger.Error(ctx, "ticket signing failed", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	return structpb.NewStruct(map[string]any{
		pb.FieldTicket:    ticket,
		pb.FieldExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}

func (s *GRPCServer) Cancel(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {

	attemptID, ok := attemptIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing ticket")
	}

	if err := s.signup.Cancel(ctx, attemptID); err != nil {
		return nil, toStatus(err)
	}

	return &structpb.Struct{}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {

	return structpb.NewStruct(map[string]any{pb.FieldStatus: "OK"})

}

func (s *GRPCServer) ListAccounts(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {

	list, err := s.signup.Accounts(ctx)
	if err != nil {
		s.logger.Error(ctx, "listing accounts failed", "error", err)
		return nil, toStatus(err)
	}

	items := make([]any, 0, len(list))
	for _, a := range list {
		items = append(items, map[string]any{
			pb.FieldID:        a.ID,
			pb.FieldEmail:     a.Email,
			pb.FieldName:      a.DisplayName,
			pb.FieldCreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return structpb.NewStruct(map[string]any{pb.FieldAccounts: items})
}
