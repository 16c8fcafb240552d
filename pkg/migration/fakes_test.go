package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/krrrr38/gitlab-issues-2-github/pkg/model"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/retry"
)

const testProjectURL = "https://gitlab.example.com/group/proj"

type fakeSource struct {
	labels       []model.Label
	issues       []model.Issue
	participants map[int][]model.Participant
	comments     map[int][]model.Comment

	commentCalls []int
}

func (s *fakeSource) WebURL() string {
	return testProjectURL
}

func (s *fakeSource) ListLabels(ctx context.Context) ([]model.Label, error) {
	return s.labels, nil
}

func (s *fakeSource) ListIssues(ctx context.Context) ([]model.Issue, error) {
	return append([]model.Issue{}, s.issues...), nil
}

func (s *fakeSource) ListParticipants(ctx context.Context, issueIID int) ([]model.Participant, error) {
	return s.participants[issueIID], nil
}

func (s *fakeSource) ListComments(ctx context.Context, issueIID int) ([]model.Comment, error) {
	s.commentCalls = append(s.commentCalls, issueIID)
	return s.comments[issueIID], nil
}

type fakeDestination struct {
	labels []string

	ops           []string
	createdLabels []model.Label
	issues        []model.NewIssue
	closed        []int
	comments      map[int][]string

	// failures to return before succeeding, per issue title
	issueFailures map[string]int
	nextNumber    int
}

func newFakeDestination(labels ...string) *fakeDestination {
	return &fakeDestination{
		labels:        labels,
		comments:      make(map[int][]string),
		issueFailures: make(map[string]int),
		nextNumber:    100,
	}
}

func (d *fakeDestination) ListLabels(ctx context.Context) ([]string, error) {
	return d.labels, nil
}

func (d *fakeDestination) CreateLabel(ctx context.Context, label model.Label) error {
	d.ops = append(d.ops, "label "+label.Name)
	d.createdLabels = append(d.createdLabels, label)
	return nil
}

func (d *fakeDestination) CreateIssue(ctx context.Context, issue model.NewIssue) (model.CreatedIssue, error) {
	if d.issueFailures[issue.Title] > 0 {
		d.issueFailures[issue.Title]--
		d.ops = append(d.ops, "fail issue "+issue.Title)
		return model.CreatedIssue{}, fmt.Errorf("cannot create %s", issue.Title)
	}
	number := d.nextNumber
	d.nextNumber++
	d.ops = append(d.ops, fmt.Sprintf("issue #%d %s", number, issue.Title))
	d.issues = append(d.issues, issue)
	return model.CreatedIssue{Number: number, URL: fmt.Sprintf("https://github.com/octo/dest/issues/%d", number)}, nil
}

func (d *fakeDestination) CloseIssue(ctx context.Context, number int) error {
	d.ops = append(d.ops, fmt.Sprintf("close #%d", number))
	d.closed = append(d.closed, number)
	return nil
}

func (d *fakeDestination) CreateComment(ctx context.Context, number int, body string) error {
	d.ops = append(d.ops, fmt.Sprintf("comment #%d", number))
	d.comments[number] = append(d.comments[number], body)
	return nil
}

type sleepRecorder struct {
	sleeps []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.sleeps = append(s.sleeps, d)
}

func noWaitPolicy(rec *sleepRecorder, maxAttempts int) retry.Policy {
	return retry.Policy{
		Pace:        time.Second,
		MaxAttempts: maxAttempts,
		Backoff:     retry.LinearBackoff(20*time.Minute, 5*time.Minute),
		Retryable:   retry.RetryAll,
		Sleep:       rec.sleep,
	}
}

func issue(iid int, title string) model.Issue {
	return model.Issue{
		IID:    iid,
		Title:  title,
		State:  "opened",
		WebURL: fmt.Sprintf("%s/-/issues/%d", testProjectURL, iid),
	}
}
