package domain

// TaskParams is the allow-list of attributes a client may assign to a task.
// A nil field means the attribute was not submitted.
type TaskParams struct {
	Title     *string
	Details   *string
	Completed *bool
}

// Empty reports whether no attribute was submitted.
func (p TaskParams) Empty() bool {
	return p.Title == nil && p.Details == nil && p.Completed == nil
}
