package admin

import (
	"bytes"
	"context"
	stderrors "errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VJ-Laxmi/my-Shop/internal/errors"
	"github.com/VJ-Laxmi/my-Shop/internal/identity"
	"github.com/VJ-Laxmi/my-Shop/internal/logging"
	"github.com/VJ-Laxmi/my-Shop/internal/metrics"
)

type fakeAccounts struct {
	calls   int
	deleted []string
	err     error
	during  func(ctx context.Context)
}

func (f *fakeAccounts) DeleteAccount(ctx context.Context, userID string) error {
	f.calls++
	f.deleted = append(f.deleted, userID)
	if f.during != nil {
		f.during(ctx)
	}
	return f.err
}

type fakeDirectory struct {
	assignments []identity.RoleAssignment
	listErr     error
	setErr      error
	setCalls    int
	lastSet     identity.RoleAssignment
}

func (f *fakeDirectory) GetRole(_ context.Context, userID string) (string, error) {
	for _, a := range f.assignments {
		if a.UserID == userID {
			return a.Role, nil
		}
	}
	return "", identity.ErrNoRole
}

func (f *fakeDirectory) ListAssignments(context.Context) ([]identity.RoleAssignment, error) {
	return f.assignments, f.listErr
}

func (f *fakeDirectory) SetRole(_ context.Context, userID, role string) error {
	f.setCalls++
	f.lastSet = identity.RoleAssignment{UserID: userID, Role: role}
	return f.setErr
}

type fakeProfiles struct {
	profiles []identity.Profile
	err      error
}

func (f *fakeProfiles) ListProfiles(context.Context) ([]identity.Profile, error) {
	return f.profiles, f.err
}

type fixture struct {
	accounts  *fakeAccounts
	directory *fakeDirectory
	profiles  *fakeProfiles
	metrics   *metrics.Metrics
	service   *Service
}

func newFixture() *fixture {
	f := &fixture{
		accounts:  &fakeAccounts{},
		directory: &fakeDirectory{},
		profiles:  &fakeProfiles{},
		metrics:   metrics.New("test"),
	}
	logger := logging.NewWithOutput("test", "debug", "json", &bytes.Buffer{})
	f.service = NewService(f.accounts, f.directory, f.profiles, f.metrics, logger)
	return f
}

var adminCaller = &identity.Identity{UserID: "admin-1", Email: "admin@example.com"}

func assertDeletions(t *testing.T, m *metrics.Metrics, outcome string, count int) {
	t.Helper()
	expected := `
# HELP test_admin_account_deletions_total Account deletion requests by outcome.
# TYPE test_admin_account_deletions_total counter
test_admin_account_deletions_total{outcome="` + outcome + `"} ` + strconv.Itoa(count) + `
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "test_admin_account_deletions_total"))
}

func TestDeleteAccount_Success(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.service.DeleteAccount(context.Background(), adminCaller, "victim-1"))
	assert.Equal(t, 1, f.accounts.calls)
	assert.Equal(t, []string{"victim-1"}, f.accounts.deleted)
	assertDeletions(t, f.metrics, metrics.OutcomeSuccess, 1)
}

func TestDeleteAccount_MissingTarget(t *testing.T) {
	for _, target := range []string{"", "   "} {
		f := newFixture()
		err := f.service.DeleteAccount(context.Background(), adminCaller, target)

		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.CodeBadRequest))
		assert.Equal(t, MsgMissingUserID, errors.GetServiceError(err).Message)
		assert.Zero(t, f.accounts.calls)
	}
}

func TestDeleteAccount_SelfDeletionRefused(t *testing.T) {
	f := newFixture()
	err := f.service.DeleteAccount(context.Background(), adminCaller, adminCaller.UserID)

	require.Error(t, err)
	assert.Equal(t, MsgSelfDeletion, errors.GetServiceError(err).Message)
	assert.Zero(t, f.accounts.calls)
	assertDeletions(t, f.metrics, metrics.OutcomeRejected, 1)
}

func TestDeleteAccount_SelfDeletionRefusedAcrossUUIDSpelling(t *testing.T) {
	caller := &identity.Identity{UserID: "7b4f1c2e-9a3d-4e8b-b1f0-2c6d5e4a3b21"}
	for _, target := range []string{
		"7B4F1C2E-9A3D-4E8B-B1F0-2C6D5E4A3B21",
		"7b4f1c2e9a3d4e8bb1f02c6d5e4a3b21",
	} {
		f := newFixture()
		err := f.service.DeleteAccount(context.Background(), caller, target)

		require.Error(t, err, "target %q", target)
		assert.Equal(t, MsgSelfDeletion, errors.GetServiceError(err).Message)
		assert.Zero(t, f.accounts.calls)
	}
}

func TestDeleteAccount_DownstreamMessageVerbatim(t *testing.T) {
	f := newFixture()
	f.accounts.err = stderrors.New("User not found")

	err := f.service.DeleteAccount(context.Background(), adminCaller, "ghost")
	require.Error(t, err)

	serviceErr := errors.GetServiceError(err)
	require.NotNil(t, serviceErr)
	assert.Equal(t, errors.CodeDownstream, serviceErr.Code)
	assert.Equal(t, "User not found", serviceErr.Message)
	assert.Equal(t, 1, f.accounts.calls)
	assertDeletions(t, f.metrics, metrics.OutcomeFailed, 1)
}

func TestDeleteAccount_CancelledBeforeDispatch(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.service.DeleteAccount(ctx, adminCaller, "victim-1")
	require.Error(t, err)
	assert.Zero(t, f.accounts.calls)
	assertDeletions(t, f.metrics, metrics.OutcomeCancelled, 1)
}

func TestDeleteAccount_DetachedFromCallerCancellation(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var errDuring error
	f.accounts.during = func(dctx context.Context) {
		cancel()
		errDuring = dctx.Err()
	}

	require.NoError(t, f.service.DeleteAccount(ctx, adminCaller, "victim-1"))
	assert.NoError(t, errDuring)
	assert.Equal(t, 1, f.accounts.calls)
}

func TestListUsers(t *testing.T) {
	f := newFixture()
	name := "Ada"
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)

	f.profiles.profiles = []identity.Profile{
		{UserID: "u1", Email: "u1@example.com", CreatedAt: older},
		{UserID: "u2", Email: "u2@example.com", FullName: &name, CreatedAt: newer},
	}
	f.directory.assignments = []identity.RoleAssignment{
		{UserID: "u2", Role: identity.RoleAdmin},
		{UserID: "orphan", Role: identity.RoleAdmin},
	}

	users, err := f.service.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "u2", users[0].UserID)
	assert.Equal(t, identity.RoleAdmin, users[0].Role)
	assert.Equal(t, &name, users[0].FullName)
	assert.Equal(t, "u1", users[1].UserID)
	assert.Equal(t, identity.RoleUser, users[1].Role)
}

func TestListUsers_Errors(t *testing.T) {
	f := newFixture()
	f.profiles.err = stderrors.New("permission denied for table profiles")
	_, err := f.service.ListUsers(context.Background())
	assert.Equal(t, "permission denied for table profiles", errors.GetServiceError(err).Message)

	f = newFixture()
	f.directory.listErr = stderrors.New("timeout")
	_, err = f.service.ListUsers(context.Background())
	assert.True(t, errors.Is(err, errors.CodeDownstream))
}

func TestSetRole(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		role     string
		setErr   error
		wantMsg  string
		wantCall bool
	}{
		{name: "promote", target: "u2", role: "admin", wantCall: true},
		{name: "demote", target: "u2", role: "user", wantCall: true},
		{name: "missing target", target: "", role: "admin", wantMsg: MsgMissingUserID},
		{name: "unknown role", target: "u2", role: "owner", wantMsg: MsgInvalidRole},
		{name: "own role", target: adminCaller.UserID, role: "user", wantMsg: MsgSelfRoleChange},
		{name: "no assignment", target: "u3", role: "admin", setErr: identity.ErrAssignmentNotFound, wantMsg: MsgAssignmentNotFound, wantCall: true},
		{name: "store failure", target: "u2", role: "admin", setErr: stderrors.New("connection refused"), wantMsg: "connection refused", wantCall: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.directory.setErr = tt.setErr

			err := f.service.SetRole(context.Background(), adminCaller, tt.target, tt.role)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, identity.RoleAssignment{UserID: tt.target, Role: tt.role}, f.directory.lastSet)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantMsg, errors.GetServiceError(err).Message)
			}
			assert.Equal(t, tt.wantCall, f.directory.setCalls == 1)
		})
	}
}
