package store

import "fmt"

// ValidationError reports input that failed a structural or semantic
// check before any write happened.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func NewValidationError(field string, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a lookup that matched no row within the caller's
// group scope. Rows in other groups are reported as not found, never as
// forbidden, so ids do not leak across tenants.
type NotFoundError struct {
	EntityType string `json:"entityType"`
	ID         string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.EntityType, e.ID)
}

func NewNotFoundError(entityType string, id string) *NotFoundError {
	return &NotFoundError{EntityType: entityType, ID: id}
}

// UnauthorizedError reports an action the caller's role does not permit.
type UnauthorizedError struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("not authorized to %s: %s", e.Action, e.Reason)
}

func NewUnauthorizedError(action string, format string, args ...any) *UnauthorizedError {
	return &UnauthorizedError{Action: action, Reason: fmt.Sprintf(format, args...)}
}

// DuplicateError reports a uniqueness conflict, such as a group slug
// that is already taken.
type DuplicateError struct {
	EntityType string `json:"entityType"`
	Field      string `json:"field"`
	Value      string `json:"value"`
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.EntityType, e.Field, e.Value)
}

func NewDuplicateError(entityType string, field string, value string) *DuplicateError {
	return &DuplicateError{EntityType: entityType, Field: field, Value: value}
}

// QuotaExceededError reports a per-group resource cap that a write would
// exceed. Current is the count observed when the check ran.
type QuotaExceededError struct {
	Resource string `json:"resource"`
	Limit    int64  `json:"limit"`
	Current  int64  `json:"current"`
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: limit %d, current %d", e.Resource, e.Limit, e.Current)
}

func NewQuotaExceededError(resource string, limit int64, current int64) *QuotaExceededError {
	return &QuotaExceededError{Resource: resource, Limit: limit, Current: current}
}
