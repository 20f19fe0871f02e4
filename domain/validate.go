package domain

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DateLayout is the wire format of due dates.
	DateLayout = "2006-01-02"

	minTitleLength = 2
)

// ParseDueDate parses an ISO calendar date in loc.
func ParseDueDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}

func validateTitle(title string) error {
	if utf8.RuneCountInString(strings.TrimSpace(title)) < minTitleLength {
		return invalid("title", "must be at least %d characters", minTitleLength)
	}
	return nil
}

func validateDueDate(s string) error {
	if s == "" {
		return invalid("dueDate", "is required")
	}
	if _, err := ParseDueDate(s, time.UTC); err != nil {
		return invalid("dueDate", "must be a date in YYYY-MM-DD format")
	}
	return nil
}

// ValidateEmail checks that s is a bare email address.
func ValidateEmail(s string) error {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return invalid("assignee.email", "invalid email address %q", s)
	}
	return nil
}

func validateAssignee(a *Assignee) error {
	if a == nil || a.IsUnassigned() {
		return nil
	}
	return ValidateEmail(strings.TrimSpace(a.Email))
}

// Validate checks a creation request.
func (n NewTask) Validate() error {
	if err := validateTitle(n.Title); err != nil {
		return err
	}
	if n.Status == "" {
		return invalid("status", "is required")
	}
	if !n.Status.Valid() {
		return invalid("status", "invalid value %q", string(n.Status))
	}
	if n.Priority == "" {
		return invalid("priority", "is required")
	}
	if !n.Priority.Valid() {
		return invalid("priority", "invalid value %q", string(n.Priority))
	}
	if err := validateDueDate(n.DueDate); err != nil {
		return err
	}
	return validateAssignee(n.Assignee)
}

// Validate checks the supplied fields of a partial update.
func (p TaskPatch) Validate() error {
	if p.Empty() {
		return &ValidationError{Message: "no fields to update"}
	}
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalid("status", "invalid value %q", string(*p.Status))
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return invalid("priority", "invalid value %q", string(*p.Priority))
	}
	if p.DueDate != nil {
		if err := validateDueDate(*p.DueDate); err != nil {
			return err
		}
	}
	return validateAssignee(p.Assignee)
}

// normalizeAssignee maps a supplied assignee onto the directory entry with the
// same email, or onto the Unassigned sentinel.
func normalizeAssignee(a *Assignee) Assignee {
	if a == nil || a.IsUnassigned() {
		return Unassigned
	}
	if known, ok := AssigneeByEmail(a.Email); ok {
		return known
	}
	out := *a
	out.Email = strings.ToLower(strings.TrimSpace(out.Email))
	if out.Name == "" {
		out.Name = out.Email
	}
	return out
}
