package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/signupd/internal/common"
	pb "github.com/dmitrijs2005/signupd/internal/proto"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.SignupServiceClient

	adminToken string

	mu     sync.Mutex
	ticket string
}

func withTicket(ctx context.Context, ticket string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.TicketHeaderName)
	md.Set(common.TicketHeaderName, ticket)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) ticketInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if ticket := s.currentTicket(); ticket != "" {
		ctx = withTicket(ctx, ticket)
	}

	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewSignupClientService dials endpointURL. adminToken is only sent with
// ListAccounts and may be empty.
func NewSignupClientService(endpointURL, adminToken string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, adminToken: adminToken}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {

	conn, err := grpc.NewClient(s.endpointURL, grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithUnaryInterceptor(s.ticketInterceptor))
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewSignupServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) currentTicket() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticket
}

func (s *GRPCClient) setTicket(t string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticket = t
}

func (s *GRPCClient) Start(ctx context.Context, email, password, confirmPassword, name string) (*StartResult, error) {

	req, err := structpb.NewStruct(map[string]any{
		pb.FieldEmail:           email,
		pb.FieldPassword:        password,
		pb.FieldConfirmPassword: confirmPassword,
		pb.FieldName:            name,
	})
	if err != nil {
		return nil, err
	}

	s.setTicket("")
	resp, err := s.client.Start(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	expiresAt, err := parseTime(pb.StringField(resp, pb.FieldExpiresAt))
	if err != nil {
		return nil, err
	}

	s.setTicket(pb.StringField(resp, pb.FieldTicket))

	return &StartResult{AttemptID: pb.StringField(resp, pb.FieldAttemptID), ExpiresAt: expiresAt}, nil
}

func (s *GRPCClient) Confirm(ctx context.Context, code string) (string, error) {

	if s.currentTicket() == "" {
		return "", ErrNoAttempt
	}

	req, err := structpb.NewStruct(map[string]any{pb.FieldCode: code})
	if err != nil {
		return "", err
	}

	resp, err := s.client.Confirm(ctx, req)
	if err != nil {
		err = s.mapError(err)
		if !isRetryableCodeError(err) {
			s.setTicket("")
		}
		return "", err
	}

	s.setTicket("")
	return pb.StringField(resp, pb.FieldAccountID), nil
}

func (s *GRPCClient) Resend(ctx context.Context) (time.Time, error) {

	if s.currentTicket() == "" {
		return time.Time{}, ErrNoAttempt
	}

	resp, err := s.client.Resend(ctx, &structpb.Struct{})
	if err != nil {
		return time.Time{}, s.mapError(err)
	}

	expiresAt, err := parseTime(pb.StringField(resp, pb.FieldExpiresAt))
	if err != nil {
		return time.Time{}, err
	}
	s.setTicket(pb.StringField(resp, pb.FieldTicket))

	return expiresAt, nil
}

func (s *GRPCClient) Cancel(ctx context.Context) error {

	if s.currentTicket() == "" {
		return ErrNoAttempt
	}

	_, err := s.client.Cancel(ctx, &structpb.Struct{})
	s.setTicket("")
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {

	resp, err := s.client.Ping(ctx, &structpb.Struct{})
	if err != nil {
		return s.mapError(err)
	}

	if pb.StringField(resp, pb.FieldStatus) != "OK" {
		return ErrUnavailable
	}

	return nil

}

func (s *GRPCClient) ListAccounts(ctx context.Context) ([]AccountSummary, error) {

	if s.adminToken != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, common.AdminTokenHeaderName, s.adminToken)
	}

	resp, err := s.client.ListAccounts(ctx, &structpb.Struct{})
	if err != nil {
		return nil, s.mapError(err)
	}

	values := resp.GetFields()[pb.FieldAccounts].GetListValue().GetValues()
	result := make([]AccountSummary, 0, len(values))
	for _, v := range values {
		item := v.GetStructValue()
		created, _ := parseTime(pb.StringField(item, pb.FieldCreatedAt))
		result = append(result, AccountSummary{
			ID:        pb.StringField(item, pb.FieldID),
			Email:     pb.StringField(item, pb.FieldEmail),
			Name:      pb.StringField(item, pb.FieldName),
			CreatedAt: created,
		})
	}
	return result, nil
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", v, err)
	}
	return t, nil
}

// sentinels recognised in status messages.
var sentinels = []error{
	common.ErrInvalidAddress,
	common.ErrPasswordMismatch,
	common.ErrAlreadyRegistered,
	common.ErrConflict,
	common.ErrCodeMismatch,
	common.ErrTooManyAttempts,
	common.ErrVerificationExpired,
	common.ErrSessionClosed,
	common.ErrVerificationUnavailable,
	common.ErrStoreUnavailable,
	common.ErrInvalidToken,
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	for _, e := range sentinels {
		if st.Message() == e.Error() {
			return e
		}
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

// isRetryableCodeError reports whether the attempt stays open after err.
func isRetryableCodeError(err error) bool {
	return errors.Is(err, common.ErrCodeMismatch) ||
		errors.Is(err, common.ErrVerificationUnavailable) ||
		errors.Is(err, ErrUnavailable)
}
