package github

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v70/github"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/model"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// Client bundles the GitHub REST and GraphQL clients
type Client struct {
	inner *github.Client
	v4    *githubv4.Client
}

// NewClientByPAT creates a new GitHub client with the provided token
func NewClientByPAT(token string) *Client {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return NewClientWithHTTP(tc)
}

// NewClientByApp creates a new GitHub client authenticated as an App installation
func NewClientByApp(appID, installationID int, privateKey string) (*Client, error) {
	itr, err := ghinstallation.New(http.DefaultTransport, int64(appID), int64(installationID), []byte(privateKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App transport: %w", err)
	}
	return NewClientWithHTTP(&http.Client{Transport: itr}), nil
}

// NewClientWithHTTP creates a GitHub client on top of an already authenticated http.Client
func NewClientWithHTTP(httpClient *http.Client) *Client {
	return &Client{
		inner: github.NewClient(httpClient),
		v4:    githubv4.NewClient(httpClient),
	}
}

// NewEnterpriseClient points both REST and GraphQL clients at a GitHub Enterprise host
func NewEnterpriseClient(httpClient *http.Client, restURL, graphqlURL string) (*Client, error) {
	inner, err := github.NewClient(httpClient).WithEnterpriseURLs(restURL, restURL)
	if err != nil {
		return nil, fmt.Errorf("failed to configure GitHub Enterprise URLs: %w", err)
	}
	return &Client{
		inner: inner,
		v4:    githubv4.NewEnterpriseClient(graphqlURL, httpClient),
	}, nil
}

// GetInner returns the underlying GitHub client
func (client *Client) GetInner() *github.Client {
	return client.inner
}

// GetV4 returns the underlying GitHub GraphQL client
func (client *Client) GetV4() *githubv4.Client {
	return client.v4
}

// RateLimit queries the remaining GraphQL API budget
func (client *Client) RateLimit(ctx context.Context) (*model.RateLimit, error) {
	var query struct {
		RateLimit struct {
			Limit     githubv4.Int
			Remaining githubv4.Int
			ResetAt   githubv4.DateTime
		}
	}
	if err := client.v4.Query(ctx, &query, nil); err != nil {
		return nil, fmt.Errorf("failed to query GitHub rate limit: %w", err)
	}
	return &model.RateLimit{
		Limit:     int(query.RateLimit.Limit),
		Remaining: int(query.RateLimit.Remaining),
		ResetAt:   query.RateLimit.ResetAt.Time,
	}, nil
}
