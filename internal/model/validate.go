package model

import (
	"fmt"
	"strings"
)

// maxLabelLength bounds node labels, counted in runes.
const maxLabelLength = 500

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) add(field, msg string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// ValidateLabel checks a node label. Empty labels are allowed; a user
// clearing the text field is a legitimate edit.
func ValidateLabel(label string) error {
	var ve ValidationError
	if len([]rune(label)) > maxLabelLength {
		ve.add("label", fmt.Sprintf("must be %d characters or fewer", maxLabelLength))
	}
	return ve.orNil()
}

// ValidateConnection checks that both endpoints are named.
// Self-loops are accepted.
func ValidateConnection(c Connection) error {
	var ve ValidationError
	if strings.TrimSpace(c.Source) == "" {
		ve.add("source", "is required")
	}
	if strings.TrimSpace(c.Target) == "" {
		ve.add("target", "is required")
	}
	return ve.orNil()
}

// ValidateNodeChanges checks every entry of a node change batch.
// A batch is accepted or rejected as a whole.
func ValidateNodeChanges(changes []NodeChange) error {
	var ve ValidationError
	for i, c := range changes {
		field := fmt.Sprintf("changes[%d]", i)
		if !c.Type.IsValidForNode() {
			ve.add(field+".type", fmt.Sprintf("invalid value %q", c.Type))
		}
		if c.ID == "" {
			ve.add(field+".id", "is required")
		}
		if c.Type == ChangePosition && c.Position == nil {
			ve.add(field+".position", "is required for position changes")
		}
	}
	return ve.orNil()
}

// ValidateEdgeChanges checks every entry of an edge change batch.
func ValidateEdgeChanges(changes []EdgeChange) error {
	var ve ValidationError
	for i, c := range changes {
		field := fmt.Sprintf("changes[%d]", i)
		if !c.Type.IsValidForEdge() {
			ve.add(field+".type", fmt.Sprintf("invalid value %q", c.Type))
		}
		if c.ID == "" {
			ve.add(field+".id", "is required")
		}
	}
	return ve.orNil()
}

// ValidateNodeAction checks that an action carries the payload its kind needs.
func ValidateNodeAction(a NodeAction) error {
	var ve ValidationError
	switch a.Kind {
	case ActionLabel:
		if a.Label == nil {
			ve.add("label", "is required for label actions")
		} else if err := ValidateLabel(*a.Label); err != nil {
			ve.Errors = append(ve.Errors, err.(*ValidationError).Errors...)
		}
	case ActionStatus:
		if a.Complete == nil {
			ve.add("complete", "is required for status actions")
		}
	case ActionDelete:
	default:
		ve.add("action", fmt.Sprintf("invalid value %q", a.Kind))
	}
	return ve.orNil()
}

// ValidateViewport rejects a zoom that cannot be rendered.
func ValidateViewport(v Viewport) error {
	var ve ValidationError
	if v.Zoom <= 0 {
		ve.add("zoom", fmt.Sprintf("must be positive, got %g", v.Zoom))
	}
	return ve.orNil()
}
