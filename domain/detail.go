package domain

import (
	"fmt"
	"time"
)

// Display is the static presentation metadata for an enumeration value.
type Display struct {
	Icon    string `json:"icon"`
	Variant string `json:"variant,omitempty"`
	Color   string `json:"color"`
}

var statusDisplay = map[Status]Display{
	StatusToDo:       {Icon: "file-text", Color: "blue"},
	StatusInProgress: {Icon: "clock", Color: "yellow"},
	StatusDone:       {Icon: "check-circle", Color: "green"},
}

var priorityDisplay = map[Priority]Display{
	PriorityLow:    {Icon: "flag", Variant: "outline", Color: "gray"},
	PriorityMedium: {Icon: "flag", Variant: "secondary", Color: "yellow"},
	PriorityHigh:   {Icon: "flag", Variant: "destructive", Color: "red"},
}

// StatusDisplay returns the display metadata for s. It panics on values
// outside the enumeration.
func StatusDisplay(s Status) Display {
	d, ok := statusDisplay[s]
	if !ok {
		panic(fmt.Sprintf("domain: no display for status %q", string(s)))
	}
	return d
}

// PriorityDisplay returns the display metadata for p. It panics on values
// outside the enumeration.
func PriorityDisplay(p Priority) Display {
	d, ok := priorityDisplay[p]
	if !ok {
		panic(fmt.Sprintf("domain: no display for priority %q", string(p)))
	}
	return d
}

// TaskDetail is the read-only projection of a single task.
type TaskDetail struct {
	Task
	IsOverdue       bool    `json:"isOverdue"`
	DueDateLabel    string  `json:"dueDateLabel"`
	StatusDisplay   Display `json:"statusDisplay"`
	PriorityDisplay Display `json:"priorityDisplay"`
}

// Detail derives the detail view of t as of now. Dates are compared as
// calendar days in now's location.
func Detail(t Task, now time.Time) TaskDetail {
	d := TaskDetail{
		Task:            t,
		DueDateLabel:    t.DueDate,
		StatusDisplay:   StatusDisplay(t.Status),
		PriorityDisplay: PriorityDisplay(t.Priority),
	}
	if due, err := ParseDueDate(t.DueDate, now.Location()); err == nil {
		d.IsOverdue = IsOverdue(due, now)
		d.DueDateLabel = due.Format("Jan 2")
	}
	return d
}

// IsOverdue reports whether due is a calendar day before today.
func IsOverdue(due, now time.Time) bool {
	y, m, dd := now.Date()
	today := time.Date(y, m, dd, 0, 0, 0, 0, now.Location())
	dy, dm, ddd := due.In(now.Location()).Date()
	dueDay := time.Date(dy, dm, ddd, 0, 0, 0, 0, now.Location())
	return dueDay.Before(today)
}
