// Package admin implements the privileged storefront administration
// operations: account deletion and role management.
package admin

import (
	"context"
	stderrors "errors"
	"sort"
	"strings"
	"time"

	"github.com/VJ-Laxmi/my-Shop/internal/errors"
	"github.com/VJ-Laxmi/my-Shop/internal/identity"
	"github.com/VJ-Laxmi/my-Shop/internal/logging"
	"github.com/VJ-Laxmi/my-Shop/internal/metrics"
)

// Client-facing messages.
const (
	MsgInvalidBody        = "Invalid request body"
	MsgMissingUserID      = "Missing userId in request body"
	MsgSelfDeletion       = "Cannot delete your own account"
	MsgRequestCancelled   = "Request cancelled"
	MsgInvalidRole        = "Invalid role"
	MsgSelfRoleChange     = "Cannot change your own role"
	MsgAssignmentNotFound = "Role assignment not found"
)

// UserSummary is one row of the admin user directory.
type UserSummary struct {
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	FullName  *string    `json:"full_name"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`
	Role      string     `json:"role"`
}

// Service performs admin operations on behalf of an already authorized
// caller. Authentication and the admin role check happen in middleware.
type Service struct {
	accounts  identity.AccountAdmin
	directory identity.RoleDirectory
	profiles  identity.ProfileSource
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// NewService creates an admin service. m may be nil.
func NewService(accounts identity.AccountAdmin, directory identity.RoleDirectory, profiles identity.ProfileSource, m *metrics.Metrics, logger *logging.Logger) *Service {
	return &Service{
		accounts:  accounts,
		directory: directory,
		profiles:  profiles,
		metrics:   m,
		logger:    logger,
	}
}

// DeleteAccount deletes targetID on behalf of caller.
//
// The delete is dispatched at most once and only after every check has
// passed. Once dispatched it is not tied to the caller's connection, so a
// client disconnect cannot abandon it halfway; the identity provider client
// still bounds it with its own timeout.
func (s *Service) DeleteAccount(ctx context.Context, caller *identity.Identity, targetID string) error {
	if strings.TrimSpace(targetID) == "" {
		s.recordDeletion(metrics.OutcomeRejected)
		return errors.BadRequest(MsgMissingUserID)
	}
	if identity.SameUser(targetID, caller.UserID) {
		s.recordDeletion(metrics.OutcomeRejected)
		s.logger.LogSecurityEvent(ctx, "self_deletion_refused", nil)
		return errors.BadRequest(MsgSelfDeletion)
	}
	if err := ctx.Err(); err != nil {
		s.recordDeletion(metrics.OutcomeCancelled)
		return errors.Downstream(MsgRequestCancelled, err)
	}

	if err := s.accounts.DeleteAccount(context.WithoutCancel(ctx), targetID); err != nil {
		s.recordDeletion(metrics.OutcomeFailed)
		return errors.Downstream(err.Error(), err)
	}

	s.recordDeletion(metrics.OutcomeSuccess)
	s.logger.LogSecurityEvent(ctx, "account_deleted", map[string]interface{}{
		"target_user_id": targetID,
	})
	return nil
}

// ListUsers joins profiles with role assignments. Users without an
// assignment are reported with the user role.
func (s *Service) ListUsers(ctx context.Context) ([]UserSummary, error) {
	profiles, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, errors.Downstream(err.Error(), err)
	}
	assignments, err := s.directory.ListAssignments(ctx)
	if err != nil {
		return nil, errors.Downstream(err.Error(), err)
	}

	roles := make(map[string]string, len(assignments))
	for _, a := range assignments {
		if _, seen := roles[a.UserID]; !seen {
			roles[a.UserID] = a.Role
		}
	}

	users := make([]UserSummary, 0, len(profiles))
	for _, p := range profiles {
		role, ok := roles[p.UserID]
		if !ok {
			role = identity.RoleUser
		}
		users = append(users, UserSummary{
			UserID:    p.UserID,
			Email:     p.Email,
			FullName:  p.FullName,
			CreatedAt: p.CreatedAt,
			LastLogin: p.LastLogin,
			Role:      role,
		})
	}

	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

// SetRole changes the role of targetID.
func (s *Service) SetRole(ctx context.Context, caller *identity.Identity, targetID, role string) error {
	switch {
	case strings.TrimSpace(targetID) == "":
		s.recordRoleUpdate(metrics.OutcomeRejected)
		return errors.BadRequest(MsgMissingUserID)
	case !identity.ValidRole(role):
		s.recordRoleUpdate(metrics.OutcomeRejected)
		return errors.BadRequest(MsgInvalidRole)
	case identity.SameUser(targetID, caller.UserID):
		s.recordRoleUpdate(metrics.OutcomeRejected)
		return errors.BadRequest(MsgSelfRoleChange)
	}

	if err := s.directory.SetRole(ctx, targetID, role); err != nil {
		if stderrors.Is(err, identity.ErrAssignmentNotFound) {
			s.recordRoleUpdate(metrics.OutcomeRejected)
			return errors.BadRequest(MsgAssignmentNotFound)
		}
		s.recordRoleUpdate(metrics.OutcomeFailed)
		return errors.Downstream(err.Error(), err)
	}

	s.recordRoleUpdate(metrics.OutcomeSuccess)
	s.logger.LogSecurityEvent(ctx, "role_updated", map[string]interface{}{
		"target_user_id": targetID,
		"new_role":       role,
	})
	return nil
}

func (s *Service) recordDeletion(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordAccountDeletion(outcome)
	}
}

func (s *Service) recordRoleUpdate(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordRoleUpdate(outcome)
	}
}
