package domain

import "strings"

const avatarBaseURL = "https://i.pravatar.cc/150?u="

// Unassigned is stored when a task is created without an assignee.
var Unassigned = Assignee{Name: "Unassigned"}

// Assignees is the fixed set of people tasks can be assigned to.
var Assignees = []Assignee{
	{Name: "Alice", Email: "alice@example.com", Avatar: avatarBaseURL + "alice"},
	{Name: "Bob", Email: "bob@example.com", Avatar: avatarBaseURL + "bob"},
	{Name: "Charlie", Email: "charlie@example.com", Avatar: avatarBaseURL + "charlie"},
	{Name: "David", Email: "david@example.com", Avatar: avatarBaseURL + "david"},
	{Name: "Eva", Email: "eva@example.com", Avatar: avatarBaseURL + "eva"},
}

// AssigneeByEmail looks up a known assignee. Matching ignores case.
func AssigneeByEmail(email string) (Assignee, bool) {
	email = strings.TrimSpace(email)
	for _, a := range Assignees {
		if strings.EqualFold(a.Email, email) {
			return a, true
		}
	}
	return Assignee{}, false
}

// IsUnassigned reports whether a is the sentinel or empty.
func (a Assignee) IsUnassigned() bool {
	return a.Email == "" && (a.Name == "" || a.Name == Unassigned.Name)
}
