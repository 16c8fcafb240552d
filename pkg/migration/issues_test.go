package migration

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/krrrr38/gitlab-issues-2-github/pkg/model"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIssues_OrderedByIID(t *testing.T) {
	source := &fakeSource{issues: []model.Issue{issue(3, "three"), issue(1, "one"), issue(2, "two")}}
	dest := newFakeDestination()
	m := NewMigrator(source, dest, noWaitPolicy(&sleepRecorder{}, 1), nil, nil)

	require.NoError(t, m.MigrateIssues(context.Background(), &Summary{}))

	require.Len(t, dest.issues, 3)
	assert.Equal(t, "one", dest.issues[0].Title)
	assert.Equal(t, "two", dest.issues[1].Title)
	assert.Equal(t, "three", dest.issues[2].Title)
	assert.Equal(t, []int{1, 2, 3}, source.commentCalls)
}

func TestMigrateIssues_SkipsConfidentialIssues(t *testing.T) {
	secret := issue(1, "secret")
	secret.Confidential = true
	source := &fakeSource{
		issues: []model.Issue{secret},
		comments: map[int][]model.Comment{
			1: {{ID: 10, Body: "public comment on a secret issue"}},
		},
	}
	dest := newFakeDestination()
	m := NewMigrator(source, dest, noWaitPolicy(&sleepRecorder{}, 1), nil, nil)
	summary := &Summary{}

	require.NoError(t, m.MigrateIssues(context.Background(), summary))

	assert.Empty(t, dest.issues)
	assert.Empty(t, dest.comments)
	assert.Empty(t, source.commentCalls)
	assert.Equal(t, 1, summary.Skipped)
}

func TestMigrateIssues_TransformsBodyAndLabels(t *testing.T) {
	i := issue(4, "Crash on start")
	i.Description = "@alice see /uploads/abc/log.txt"
	i.Labels = []string{"Bug", "P1"}
	source := &fakeSource{
		issues: []model.Issue{i},
		participants: map[int][]model.Participant{
			4: {{Username: "alice", WebURL: "https://gitlab.example.com/alice"}},
		},
	}
	dest := newFakeDestination()
	m := NewMigrator(source, dest, noWaitPolicy(&sleepRecorder{}, 1), nil, nil)

	require.NoError(t, m.MigrateIssues(context.Background(), &Summary{}))

	require.Len(t, dest.issues, 1)
	assert.Equal(t, model.NewIssue{
		Title: "Crash on start",
		Body: "[@alice](https://gitlab.example.com/alice) see https://gitlab.example.com/group/proj/uploads/abc/log.txt\n\n---\n" +
			"<sub>You can find the original issue from GitLab [here](https://gitlab.example.com/group/proj/-/issues/4).</sub>\n",
		Labels: []string{"bug", "p1", "gitlab"},
	}, dest.issues[0])
}

func TestMigrateIssues_EmptyDescriptionIsFooterOnly(t *testing.T) {
	source := &fakeSource{issues: []model.Issue{issue(1, "no body")}}
	dest := newFakeDestination()
	m := NewMigrator(source, dest, noWaitPolicy(&sleepRecorder{}, 1), nil, nil)

	require.NoError(t, m.MigrateIssues(context.Background(), &Summary{}))

	assert.Equal(t,
		"<sub>You can find the original issue from GitLab [here](https://gitlab.example.com/group/proj/-/issues/1).</sub>\n",
		dest.issues[0].Body)
}

func TestMigrateIssues_ClosesClosedIssuesBeforeComments(t *testing.T) {
	closed := issue(1, "done")
	closed.State = model.IssueStateClosed
	source := &fakeSource{
		issues:   []model.Issue{closed, issue(2, "open")},
		comments: map[int][]model.Comment{1: {{ID: 10, Body: "fixed"}}},
	}
	dest := newFakeDestination()
	m := NewMigrator(source, dest, noWaitPolicy(&sleepRecorder{}, 1), nil, nil)
	summary := &Summary{}

	require.NoError(t, m.MigrateIssues(context.Background(), summary))

	assert.Equal(t, []string{
		"issue #100 done",
		"close #100",
		"comment #100",
		"issue #101 open",
	}, dest.ops)
	assert.Equal(t, Summary{Issues: 2, Closed: 1, Comments: 1}, *summary)
}

func TestMigrateIssues_Comments(t *testing.T) {
	source := &fakeSource{
		issues: []model.Issue{issue(7, "discussed")},
		participants: map[int][]model.Participant{
			7: {{Username: "bob", WebURL: "https://gitlab.example.com/bob"}},
		},
		comments: map[int][]model.Comment{
			7: {
				{ID: 3, Body: "second in time but listed first @bob"},
				{ID: 4, Body: "changed the description", System: true},
				{ID: 5, Body: "secret", Confidential: true},
				{ID: 1, Body: "![img](/uploads/x/y.png)"},
			},
		},
	}
	dest := newFakeDestination()
	out := &bytes.Buffer{}
	m := NewMigrator(source, dest, noWaitPolicy(&sleepRecorder{}, 1), nil, out)

	require.NoError(t, m.MigrateIssues(context.Background(), &Summary{}))

	assert.Equal(t, []string{
		"second in time but listed first [@bob](https://gitlab.example.com/bob)\n\n---\n" +
			"<sub>You can find the original comment from GitLab [here](https://gitlab.example.com/group/proj/-/issues/7#note_3).</sub>\n",
		"![img](https://gitlab.example.com/group/proj/uploads/x/y.png)\n\n---\n" +
			"<sub>You can find the original comment from GitLab [here](https://gitlab.example.com/group/proj/-/issues/7#note_1).</sub>\n",
	}, dest.comments[100])
	assert.Equal(t, "  * Move issue #7\n    * Move comment 3\n    * Move comment 1\n", out.String())
}

func TestMigrateIssues_FilterIssueIIDs(t *testing.T) {
	source := &fakeSource{issues: []model.Issue{issue(1, "one"), issue(2, "two"), issue(3, "three")}}
	dest := newFakeDestination()
	m := NewMigrator(source, dest, noWaitPolicy(&sleepRecorder{}, 1), &MigrationOptions{FilterIssueIIDs: []int{3, 1}}, nil)

	require.NoError(t, m.MigrateIssues(context.Background(), &Summary{}))

	require.Len(t, dest.issues, 2)
	assert.Equal(t, "one", dest.issues[0].Title)
	assert.Equal(t, "three", dest.issues[1].Title)
}

func TestMigrateIssues_RewriteReferences(t *testing.T) {
	i := issue(2, "follow-up")
	i.Description = "see #1"
	source := &fakeSource{issues: []model.Issue{i}}
	dest := newFakeDestination()
	m := NewMigrator(source, dest, noWaitPolicy(&sleepRecorder{}, 1), &MigrationOptions{RewriteReferences: true}, nil)

	require.NoError(t, m.MigrateIssues(context.Background(), &Summary{}))

	assert.Contains(t, dest.issues[0].Body, "see https://gitlab.example.com/group/proj/-/issues/1\n")
}

func TestMigrateIssues_RetriesFailedWrites(t *testing.T) {
	source := &fakeSource{issues: []model.Issue{issue(1, "flaky")}}
	dest := newFakeDestination()
	dest.issueFailures["flaky"] = 2
	rec := &sleepRecorder{}
	m := NewMigrator(source, dest, noWaitPolicy(rec, 3), nil, nil)

	require.NoError(t, m.MigrateIssues(context.Background(), &Summary{}))

	assert.Equal(t, []string{"fail issue flaky", "fail issue flaky", "issue #100 flaky"}, dest.ops)
	assert.Equal(t, []time.Duration{
		time.Second, 20 * time.Minute,
		time.Second, 25 * time.Minute,
		time.Second,
	}, rec.sleeps)
}

func TestMigrateIssues_PermanentFailureAbortsRun(t *testing.T) {
	source := &fakeSource{issues: []model.Issue{issue(1, "ok"), issue(2, "broken"), issue(3, "never")}}
	dest := newFakeDestination()
	dest.issueFailures["broken"] = 10
	m := NewMigrator(source, dest, noWaitPolicy(&sleepRecorder{}, 2), nil, nil)

	_, err := m.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "issue #2")
	assert.Contains(t, err.Error(), "cannot create broken")
	require.Len(t, dest.issues, 1)
	assert.Equal(t, "ok", dest.issues[0].Title)
}

func TestRun_LabelsBeforeIssues(t *testing.T) {
	source := &fakeSource{
		labels: []model.Label{{Name: "Bug", Color: "#ff0000"}},
		issues: []model.Issue{issue(1, "one")},
	}
	dest := newFakeDestination()
	m := NewMigrator(source, dest, noWaitPolicy(&sleepRecorder{}, 1), nil, nil)

	summary, err := m.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"label bug", "label gitlab", "issue #100 one"}, dest.ops)
	assert.Equal(t, &Summary{Labels: 2, Issues: 1}, summary)
}

func TestIssueLabels(t *testing.T) {
	assert.Equal(t, []string{"gitlab"}, issueLabels(nil))
	assert.Equal(t, []string{"bug", "gitlab"}, issueLabels([]string{"Bug", "bug", "GitLab"}))
}

func TestMigrateIssues_RewrittenBodiesStayWithinGitHubLimits(t *testing.T) {
	// each upload link grows by the project URL once rewritten
	long := strings.Repeat("/uploads/a/b.png @alice ", 4000)
	i := issue(1, "huge")
	i.Description = long
	source := &fakeSource{
		issues: []model.Issue{i},
		participants: map[int][]model.Participant{
			1: {{Username: "alice", WebURL: "https://gitlab.example.com/alice"}},
		},
		comments: map[int][]model.Comment{1: {{ID: 5, Body: long}}},
	}
	dest := newFakeDestination()
	m := NewMigrator(source, dest, noWaitPolicy(&sleepRecorder{}, 1), nil, nil)

	require.NoError(t, m.MigrateIssues(context.Background(), &Summary{}))

	body := dest.issues[0].Body
	assert.LessOrEqual(t, utf8.RuneCountInString(body), utils.MaxIssueBodyLength)
	assert.True(t, strings.HasPrefix(body, "https://gitlab.example.com/group/proj/uploads/a/b.png [@alice](https://gitlab.example.com/alice)"))
	assert.Contains(t, body, utils.TruncateSuffix+"\n\n---\n")
	assert.True(t, strings.HasSuffix(body, "[here](https://gitlab.example.com/group/proj/-/issues/1).</sub>\n"))

	comment := dest.comments[100][0]
	assert.LessOrEqual(t, utf8.RuneCountInString(comment), utils.MaxCommentLength)
	assert.Contains(t, comment, utils.TruncateSuffix+"\n\n---\n")
	assert.True(t, strings.HasSuffix(comment, "[here](https://gitlab.example.com/group/proj/-/issues/1#note_5).</sub>\n"))
}
