package models

// Status governs dispatch eligibility of a SupportMessage
type Status string

const (
	StatusPending   Status = "pending"
	StatusResponded Status = "responded"
	StatusResolved  Status = "resolved"
)

var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusResponded: true,
	StatusResolved:  true,
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	return validStatuses[s]
}
