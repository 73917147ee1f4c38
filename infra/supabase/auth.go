package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// AuthClient handles Supabase Auth (GoTrue) operations.
// None of its methods create, persist or refresh sessions.
type AuthClient struct {
	client *Client
}

// GetUser resolves the user owning accessToken.
func (a *AuthClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, NewError("bad_jwt", "access token is required", http.StatusUnauthorized)
	}

	respBody, statusCode, err := a.client.do(ctx, request{
		operation:   "auth.get_user",
		method:      http.MethodGet,
		url:         a.client.authURL + "/user",
		credential:  credUserToken,
		accessToken: accessToken,
	})
	if err != nil {
		return nil, err
	}

	if statusCode >= 400 {
		return nil, parseError(respBody, statusCode)
	}

	var user User
	if err := json.Unmarshal(respBody, &user); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if user.ID == "" {
		return nil, NewError("user_not_found", "user not found", http.StatusUnauthorized)
	}

	return &user, nil
}

// =============================================================================
// Admin Operations (require service role key)
// =============================================================================

func (a *AuthClient) adminUserURL(userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	return a.client.authURL + "/admin/users/" + url.PathEscape(userID), nil
}

// AdminDeleteUser permanently deletes a user (admin operation).
func (a *AuthClient) AdminDeleteUser(ctx context.Context, userID string) error {
	target, err := a.adminUserURL(userID)
	if err != nil {
		return err
	}

	respBody, statusCode, err := a.client.do(ctx, request{
		operation: "auth.admin_delete_user",
		method:    http.MethodDelete,
		url:       target,
	})
	if err != nil {
		return err
	}

	if statusCode >= 400 {
		return parseError(respBody, statusCode)
	}

	return nil
}
