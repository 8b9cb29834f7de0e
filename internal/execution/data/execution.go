package data

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/lk2023060901/execution-console/internal/execution/biz"
	apperrors "github.com/lk2023060901/execution-console/internal/pkg/errors"
	"github.com/lk2023060901/execution-console/internal/pkg/httpclient"
)

// ExecutionRepo implements biz.ExecutionRepo over the REST API
type ExecutionRepo struct {
	client *httpclient.Client
}

// NewExecutionRepo creates a new execution repository
func NewExecutionRepo(client *httpclient.Client) *ExecutionRepo {
	return &ExecutionRepo{client: client}
}

var _ biz.ExecutionRepo = (*ExecutionRepo)(nil)

// Get retrieves an execution by identifier. A null or empty payload means
// no record and returns nil, nil.
func (r *ExecutionRepo) Get(ctx context.Context, id string) (*biz.Execution, error) {
	var raw json.RawMessage
	if err := r.client.Get(ctx, "/executions/"+url.PathEscape(id), &raw); err != nil {
		return nil, notFound(err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var exec biz.Execution
	if err := json.Unmarshal(raw, &exec); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrMalformedData, "decode execution %s", id)
	}
	if exec.Identifier == "" {
		exec.Identifier = id
	}
	return &exec, nil
}

// ReExecute starts a new execution based on id and returns its identifier
func (r *ExecutionRepo) ReExecute(ctx context.Context, id string, req *biz.ReExecuteRequest) (string, error) {
	var resp struct {
		Identifier string `json:"identifier"`
	}
	if err := r.client.Post(ctx, "/executions/"+url.PathEscape(id)+"/re-execute", req, &resp); err != nil {
		return "", notFound(err)
	}
	return resp.Identifier, nil
}

// notFound keeps the server's message when it sent one
func notFound(err error) error {
	var apiErr *httpclient.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound && apiErr.Message == "http 404" {
		return apperrors.Wrap(err, apperrors.ErrExecutionNotFound)
	}
	return err
}
