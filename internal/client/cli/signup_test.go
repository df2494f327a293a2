package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/signupd/internal/client/client"
	"github.com/dmitrijs2005/signupd/internal/client/config"
	"github.com/dmitrijs2005/signupd/internal/common"
)

type fakeClient struct {
	startErr  error
	confirm   []error
	resendErr error
	pingErr   error
	listErr   error
	accounts  []client.AccountSummary
	calls     []string
	gotCodes  []string
	gotStart  []string
	cancelled bool
	closed    bool
	expiresAt time.Time
	accountID string
}

func (f *fakeClient) Close() error { f.closed = true; return nil }

func (f *fakeClient) Start(ctx context.Context, email, password, confirmPassword, name string) (*client.StartResult, error) {
	f.calls = append(f.calls, "start")
	f.gotStart = []string{email, password, confirmPassword, name}
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &client.StartResult{AttemptID: "a-1", ExpiresAt: f.expiresAt}, nil
}

func (f *fakeClient) Confirm(ctx context.Context, code string) (string, error) {
	f.calls = append(f.calls, "confirm")
	f.gotCodes = append(f.gotCodes, code)
	if len(f.confirm) > 0 {
		err := f.confirm[0]
		f.confirm = f.confirm[1:]
		if err != nil {
			return "", err
		}
	}
	return f.accountID, nil
}

func (f *fakeClient) Resend(ctx context.Context) (time.Time, error) {
	f.calls = append(f.calls, "resend")
	return f.expiresAt, f.resendErr
}

func (f *fakeClient) Cancel(ctx context.Context) error {
	f.calls = append(f.calls, "cancel")
	f.cancelled = true
	return nil
}

func (f *fakeClient) Ping(ctx context.Context) error {
	f.calls = append(f.calls, "ping")
	return f.pingErr
}

func (f *fakeClient) ListAccounts(ctx context.Context) ([]client.AccountSummary, error) {
	f.calls = append(f.calls, "list")
	return f.accounts, f.listErr
}

func stubPasswords(t *testing.T, pw ...string) {
	t.Helper()
	old := getPassword
	t.Cleanup(func() { getPassword = old })
	getPassword = func(prompt string, w io.Writer) ([]byte, error) {
		if len(pw) == 0 {
			return nil, io.EOF
		}
		p := pw[0]
		pw = pw[1:]
		return []byte(p), nil
	}
}

func newTestApp(fc *fakeClient, input string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	cfg := &config.Config{RequestTimeout: time.Second}
	return newApp(cfg, fc, strings.NewReader(input), &out), &out
}

func TestSignup_HappyPathAfterWrongCode(t *testing.T) {
	stubPasswords(t, "pw", "pw")
	fc := &fakeClient{
		accountID: "acc-1",
		expiresAt: time.Now().Add(15 * time.Minute),
		confirm:   []error{common.ErrCodeMismatch, nil},
	}
	app, out := newTestApp(fc, "jo@example.com\nJo\n111111\n\n123456\n")

	require.NoError(t, app.Signup(context.Background()))

	assert.Equal(t, []string{"jo@example.com", "pw", "pw", "Jo"}, fc.gotStart)
	assert.Equal(t, []string{"111111", "123456"}, fc.gotCodes)
	assert.Contains(t, out.String(), "try again")
	assert.Contains(t, out.String(), "Account created: acc-1")
}

func TestSignup_StartErrorIsReturned(t *testing.T) {
	stubPasswords(t, "pw", "other")
	fc := &fakeClient{startErr: common.ErrPasswordMismatch}
	app, _ := newTestApp(fc, "jo@example.com\nJo\n")

	err := app.Signup(context.Background())
	require.ErrorIs(t, err, common.ErrPasswordMismatch)
	assert.Equal(t, []string{"start"}, fc.calls)
}

func TestSignup_ResendThenConfirm(t *testing.T) {
	stubPasswords(t, "pw", "pw")
	fc := &fakeClient{accountID: "acc-1", expiresAt: time.Now().Add(time.Minute)}
	app, out := newTestApp(fc, "jo@example.com\nJo\nresend\n654321\n")

	require.NoError(t, app.Signup(context.Background()))
	assert.Equal(t, []string{"start", "resend", "confirm"}, fc.calls)
	assert.Contains(t, out.String(), "A new code was sent")
}

func TestSignup_ResendFailureKeepsWaiting(t *testing.T) {
	stubPasswords(t, "pw", "pw")
	fc := &fakeClient{accountID: "acc-1", resendErr: common.ErrVerificationUnavailable}
	app, out := newTestApp(fc, "jo@example.com\nJo\nresend\n654321\n")

	require.NoError(t, app.Signup(context.Background()))
	assert.Equal(t, []string{"start", "resend", "confirm"}, fc.calls)
	assert.Contains(t, out.String(), "Could not send a new code")
}

func TestSignup_Cancel(t *testing.T) {
	stubPasswords(t, "pw", "pw")
	fc := &fakeClient{}
	app, out := newTestApp(fc, "jo@example.com\nJo\ncancel\n")

	require.NoError(t, app.Signup(context.Background()))
	assert.True(t, fc.cancelled)
	assert.Contains(t, out.String(), "Signup cancelled.")
}

func TestSignup_TerminalErrorEndsAttempt(t *testing.T) {
	stubPasswords(t, "pw", "pw")
	fc := &fakeClient{confirm: []error{common.ErrVerificationExpired}}
	app, _ := newTestApp(fc, "jo@example.com\nJo\n123456\n")

	err := app.Signup(context.Background())
	require.ErrorIs(t, err, common.ErrVerificationExpired)
}

func TestSignup_EOFWhileWaitingCancels(t *testing.T) {
	stubPasswords(t, "pw", "pw")
	fc := &fakeClient{}
	app, _ := newTestApp(fc, "jo@example.com\nJo\n")

	err := app.Signup(context.Background())
	require.ErrorIs(t, err, io.EOF)
	assert.True(t, fc.cancelled)
}

func TestList(t *testing.T) {
	fc := &fakeClient{accounts: []client.AccountSummary{
		{ID: "acc-1", Email: "jo@example.com", Name: "Jo", CreatedAt: time.Now()},
	}}
	app, out := newTestApp(fc, "")

	require.NoError(t, app.List(context.Background()))
	assert.Contains(t, out.String(), "EMAIL")
	assert.Contains(t, out.String(), "jo@example.com")
}

func TestList_Empty(t *testing.T) {
	app, out := newTestApp(&fakeClient{}, "")

	require.NoError(t, app.List(context.Background()))
	assert.Equal(t, "No accounts.\n", out.String())
}

func TestList_Unauthorized(t *testing.T) {
	app, out := newTestApp(&fakeClient{listErr: client.ErrUnauthorized}, "")

	err := app.List(context.Background())
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Contains(t, err.Error(), "-k")
	assert.Empty(t, out.String())
}

func TestPing_SetsMode(t *testing.T) {
	fc := &fakeClient{}
	app, out := newTestApp(fc, "")

	require.NoError(t, app.Ping(context.Background()))
	assert.Equal(t, ModeOnline, app.Mode)
	assert.Equal(t, "OK\n", out.String())

	fc.pingErr = client.ErrUnavailable
	require.ErrorIs(t, app.Ping(context.Background()), client.ErrUnavailable)
	assert.Equal(t, ModeOffline, app.Mode)
}

func TestRun_ClosesClient(t *testing.T) {
	captureOutput(t)
	fc := &fakeClient{}
	app, _ := newTestApp(fc, "ping\nexit\n")

	app.Run(context.Background())

	assert.True(t, fc.closed)
	assert.Contains(t, fc.calls, "ping")
}

var _ client.Client = (*fakeClient)(nil)

func TestCanRetry(t *testing.T) {
	assert.True(t, canRetry(common.ErrCodeMismatch))
	assert.True(t, canRetry(client.ErrUnavailable))
	assert.False(t, canRetry(common.ErrTooManyAttempts))
	assert.False(t, canRetry(errors.New("other")))
}
