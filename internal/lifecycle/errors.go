package lifecycle

import (
	"errors"
	"fmt"

	"github.com/vaidashi/catering-api/internal/models"
)

var (
	// ErrInvalidTransition matches every *InvalidTransitionError
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnauthorized matches every *UnauthorizedError
	ErrUnauthorized = errors.New("role may not mutate entity")
)

// InvalidTransitionError reports a target status that is not reachable from the current one
type InvalidTransitionError struct {
	Kind     models.EntityKind
	EntityID string
	From     models.Status
	To       models.Status
	Reason   string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("invalid %s transition for %s: %s -> %s", e.Kind, e.EntityID, e.From, e.To)

	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}

	return msg
}

// Is lets errors.Is match ErrInvalidTransition
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// UnauthorizedError reports a role that lacks permission for the entity kind
type UnauthorizedError struct {
	Role     string
	Kind     models.EntityKind
	EntityID string
	From     models.Status
	To       models.Status
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("role %q may not change %s %s from %s to %s", e.Role, e.Kind, e.EntityID, e.From, e.To)
}

// Is lets errors.Is match ErrUnauthorized
func (e *UnauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}
