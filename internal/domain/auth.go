package domain

// SubjectType differentiates anonymous requestors from staff.
type SubjectType string

const (
	SubjectTypeRequestor SubjectType = "REQUESTOR"
	SubjectTypeStaff     SubjectType = "STAFF"
)
