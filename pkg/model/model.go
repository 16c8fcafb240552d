package model

import "time"

const (
	// IssueStateClosed is the GitLab state of a closed issue
	IssueStateClosed = "closed"
)

// MarkerLabel is attached to every migrated issue and created on GitHub when missing
var MarkerLabel = Label{
	Name:        "gitlab",
	Color:       "FC6D27",
	Description: "For issues moved from GitLab",
}

// Label is a GitLab project label
type Label struct {
	Name        string
	Color       string
	Description string
}

// Participant is a GitLab user taking part in an issue
type Participant struct {
	Username string
	WebURL   string
}

// Issue is a GitLab issue
type Issue struct {
	IID          int
	Title        string
	Description  string
	Labels       []string
	State        string
	Confidential bool
	WebURL       string
}

// Closed reports whether the issue is closed on GitLab
func (i *Issue) Closed() bool {
	return i.State == IssueStateClosed
}

// Comment is a GitLab issue note
type Comment struct {
	ID           int
	Body         string
	Confidential bool
	System       bool
}

// NewIssue is the payload of a GitHub issue to create
type NewIssue struct {
	Title  string
	Body   string
	Labels []string
}

// CreatedIssue identifies an issue created on GitHub
type CreatedIssue struct {
	Number int
	URL    string
}

// RateLimit is a snapshot of the GitHub API budget
type RateLimit struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}
