package domain

import "strings"

// User is a registered account. It is recorded when a caller saves a profile
// and lets assignee emails resolve to user ids.
type User struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Validate checks the update against the profile rules.
func (p ProfileUpdate) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("name", "is required")
	}
	return nil
}

// UserFromIdentity builds the account record for who with the update applied.
func UserFromIdentity(who Identity, p ProfileUpdate) User {
	return User{
		ID:     who.UserID,
		Email:  strings.ToLower(strings.TrimSpace(who.Email)),
		Name:   strings.TrimSpace(p.Name),
		Avatar: strings.TrimSpace(p.Avatar),
	}
}
