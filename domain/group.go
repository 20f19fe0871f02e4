package domain

// GroupByStatus partitions tasks into board columns. Every status has an
// entry, and tasks keep their relative input order within a column.
func GroupByStatus(tasks []Task) map[Status][]Task {
	groups := make(map[Status][]Task, len(Statuses))
	for _, s := range Statuses {
		groups[s] = []Task{}
	}
	for _, t := range tasks {
		groups[t.Status] = append(groups[t.Status], t)
	}
	return groups
}

// Column is one status column of the board in display order.
type Column struct {
	Status Status `json:"status"`
	Tasks  []Task `json:"tasks"`
}

// Columns returns the grouped tasks ordered by Statuses.
func Columns(tasks []Task) []Column {
	groups := GroupByStatus(tasks)
	cols := make([]Column, 0, len(Statuses))
	for _, s := range Statuses {
		cols = append(cols, Column{Status: s, Tasks: groups[s]})
	}
	return cols
}
