package planner

// ValidationError reports malformed client input: a bad date or timezone,
// an inverted time range, an edit to an immutable item category.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ConflictError reports that a requested time range overlaps an existing
// item, or that the solver found no feasible placement for a category.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// NotFoundError reports that a referenced entity does not exist for the
// owner.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }
