package data

import (
	"context"
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/lk2023060901/execution-console/internal/auth/biz"
	apperrors "github.com/lk2023060901/execution-console/internal/pkg/errors"
	"github.com/lk2023060901/execution-console/internal/pkg/httpclient"
)

// tokenPaths 依次尝试的 token 字段（信封已解开时同样适用）
var tokenPaths = []string{
	"data.token",
	"data.tokens.access_token",
	"token",
	"tokens.access_token",
	"access_token",
}

// AuthRepo implements biz.AuthRepo over the REST API
type AuthRepo struct {
	client *httpclient.Client
}

// NewAuthRepo creates a new auth repository
func NewAuthRepo(client *httpclient.Client) *AuthRepo {
	return &AuthRepo{client: client}
}

var _ biz.AuthRepo = (*AuthRepo)(nil)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

// Signup registers a user and returns the issued token
func (r *AuthRepo) Signup(ctx context.Context, username, email, password string) (string, error) {
	var raw json.RawMessage
	if err := r.client.Post(ctx, "/auth/signup", signupRequest{
		Username: username,
		Email:    email,
		Password: password,
	}, &raw); err != nil {
		return "", err
	}
	return extractToken(raw)
}

// Login authenticates with a username or email
func (r *AuthRepo) Login(ctx context.Context, account, password string) (string, error) {
	var raw json.RawMessage
	if err := r.client.Post(ctx, "/auth/login", loginRequest{
		Account:  account,
		Password: password,
	}, &raw); err != nil {
		return "", err
	}
	if gjson.GetBytes(raw, "require_2fa").Bool() {
		return "", apperrors.New(apperrors.ErrAuthLoginFailed, "Two-factor authentication is not supported by this client.")
	}
	return extractToken(raw)
}

func extractToken(raw json.RawMessage) (string, error) {
	for _, path := range tokenPaths {
		if r := gjson.GetBytes(raw, path); r.Type == gjson.String && r.Str != "" {
			return r.Str, nil
		}
	}
	return "", apperrors.New(apperrors.ErrAuthNoToken)
}
