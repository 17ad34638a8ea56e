package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/chronos/internal/domain/heartbeat"
	"github.com/rpggio/chronos/internal/domain/project"
	"github.com/rpggio/chronos/internal/domain/summary"
	"github.com/rpggio/chronos/internal/domain/user"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

// MapError maps domain errors to MCP error codes. Validation errors keep
// their wrapped message so callers see which field was rejected.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, heartbeat.ErrEmptyBatch):
		return &APIError{Code: "EMPTY_BATCH", Message: err.Error(), RecoveryHint: "Send at least one heartbeat"}
	case errors.Is(err, heartbeat.ErrInvalidInput):
		return &APIError{Code: "INVALID_HEARTBEAT", Message: err.Error(), RecoveryHint: "Fix the heartbeat and resend the whole batch"}
	case errors.Is(err, summary.ErrInvalidRange):
		return &APIError{Code: "INVALID_RANGE", Message: err.Error(), RecoveryHint: "Use start <= end or a wider interval"}
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects for valid ids"}
	case errors.Is(err, project.ErrCycle):
		return &APIError{Code: "PROJECT_CYCLE", Message: err.Error(), RecoveryHint: "Pick a parent outside the project's subtree"}
	case errors.Is(err, project.ErrDuplicateFolder):
		return &APIError{Code: "DUPLICATE_PROJECT", Message: err.Error(), RecoveryHint: "Call list_projects to find the existing project"}
	case errors.Is(err, project.ErrInvalidInput):
		return &APIError{Code: "INVALID_PROJECT", Message: err.Error()}
	case errors.Is(err, user.ErrUnauthorized):
		return &APIError{Code: "UNAUTHORIZED", Message: "unknown or missing api key"}
	default:
		return nil
	}
}

// toolError converts err to an APIError when it is a known domain error.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
