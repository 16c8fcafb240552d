package gitlab

import (
	"context"
	"fmt"

	"github.com/krrrr38/gitlab-issues-2-github/pkg/logger"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/model"
	"github.com/xanzy/go-gitlab"
)

const perPage = 100

// NewClient creates a GitLab client. An empty token performs unauthenticated reads.
func NewClient(token, baseURL string) (*gitlab.Client, error) {
	client, err := gitlab.NewClient(token, gitlab.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}
	return client, nil
}

// Project is a resolved GitLab project whose issues are read
type Project struct {
	client *gitlab.Client
	id     int
	path   string
	webURL string
}

// OpenProject resolves a project by its path with namespace (or numeric ID)
func OpenProject(ctx context.Context, client *gitlab.Client, pathWithNamespace string) (*Project, error) {
	p, _, err := client.Projects.GetProject(pathWithNamespace, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get GitLab project %s: %w", pathWithNamespace, err)
	}
	logger.Debug("Resolved GitLab project", "id", p.ID, "path", p.PathWithNamespace, "url", p.WebURL)
	return &Project{
		client: client,
		id:     p.ID,
		path:   p.PathWithNamespace,
		webURL: p.WebURL,
	}, nil
}

// WebURL is the project page, used as base for upload links
func (p *Project) WebURL() string {
	return p.webURL
}

// Path is the project path with namespace
func (p *Project) Path() string {
	return p.path
}

// ListLabels retrieves all labels of the project
func (p *Project) ListLabels(ctx context.Context) ([]model.Label, error) {
	var ret []model.Label
	opts := &gitlab.ListLabelsOptions{
		ListOptions: gitlab.ListOptions{PerPage: perPage, Page: 1},
	}
	for {
		labels, resp, err := p.client.Labels.ListLabels(p.id, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list GitLab labels: %w", err)
		}
		for _, l := range labels {
			ret = append(ret, model.Label{
				Name:        l.Name,
				Color:       l.Color,
				Description: l.Description,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return ret, nil
}

// ListIssues retrieves all issues of the project, oldest first
func (p *Project) ListIssues(ctx context.Context) ([]model.Issue, error) {
	var ret []model.Issue
	opts := &gitlab.ListProjectIssuesOptions{
		OrderBy:     gitlab.String("created_at"),
		Sort:        gitlab.String("asc"),
		ListOptions: gitlab.ListOptions{PerPage: perPage, Page: 1},
	}
	for {
		issues, resp, err := p.client.Issues.ListProjectIssues(p.id, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list GitLab issues: %w", err)
		}
		for _, issue := range issues {
			ret = append(ret, model.Issue{
				IID:          issue.IID,
				Title:        issue.Title,
				Description:  issue.Description,
				Labels:       []string(issue.Labels),
				State:        issue.State,
				Confidential: issue.Confidential,
				WebURL:       issue.WebURL,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return ret, nil
}

// ListParticipants retrieves the users taking part in an issue
func (p *Project) ListParticipants(ctx context.Context, issueIID int) ([]model.Participant, error) {
	users, _, err := p.client.Issues.GetParticipants(p.id, issueIID, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list participants of GitLab issue #%d: %w", issueIID, err)
	}
	ret := make([]model.Participant, 0, len(users))
	for _, u := range users {
		if u == nil {
			continue
		}
		ret = append(ret, model.Participant{Username: u.Username, WebURL: u.WebURL})
	}
	return ret, nil
}

// ListComments retrieves the notes of an issue in creation order
func (p *Project) ListComments(ctx context.Context, issueIID int) ([]model.Comment, error) {
	var ret []model.Comment
	opts := &gitlab.ListIssueNotesOptions{
		OrderBy:     gitlab.String("created_at"),
		Sort:        gitlab.String("asc"),
		ListOptions: gitlab.ListOptions{PerPage: perPage, Page: 1},
	}
	for {
		notes, resp, err := p.client.Notes.ListIssueNotes(p.id, issueIID, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list notes of GitLab issue #%d: %w", issueIID, err)
		}
		for _, note := range notes {
			ret = append(ret, model.Comment{
				ID:           note.ID,
				Body:         note.Body,
				Confidential: note.Confidential || note.Internal,
				System:       note.System,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return ret, nil
}
