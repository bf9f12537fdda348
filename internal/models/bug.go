package models

import (
	"slices"
	"time"
)

// BugStatus represents the state of a bug.
type BugStatus string

const (
	BugStatusOpen       BugStatus = "open"
	BugStatusInProgress BugStatus = "in-progress"
	BugStatusClosed     BugStatus = "closed"
)

// BugStatuses lists every accepted status in workflow order.
var BugStatuses = []BugStatus{BugStatusOpen, BugStatusInProgress, BugStatusClosed}

// Valid reports whether s is one of the known statuses.
func (s BugStatus) Valid() bool {
	return slices.Contains(BugStatuses, s)
}

// BugID is the opaque identifier a store assigns to a bug on creation.
// Callers should treat it as a token: compare it, print it, send it back.
type BugID string

func (id BugID) String() string { return string(id) }

// Bug is a tracked defect report.
type Bug struct {
	ID          BugID     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      BugStatus `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}
