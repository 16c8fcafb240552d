package transform

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/krrrr38/gitlab-issues-2-github/pkg/model"
)

var (
	// UploadsPattern matches a GitLab upload path up to whitespace or a closing parenthesis
	UploadsPattern = regexp.MustCompile(`/uploads/[^\s)]+`)
	// IssueReferencePattern matches a GitLab issue reference such as #12
	IssueReferencePattern = regexp.MustCompile(`(^|[^\w&/#])#([1-9][0-9]*)\b`)
	// MergeRequestReferencePattern matches a GitLab merge request reference such as !7
	MergeRequestReferencePattern = regexp.MustCompile(`(^|[^\w/!])!([1-9][0-9]*)\b`)
)

// RewriteUploadLinks turns relative upload paths into absolute links below projectURL.
// Paths that are already part of an absolute URL are left untouched.
func RewriteUploadLinks(text, projectURL string) string {
	matches := UploadsPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 && isURLChar(text[start-1]) {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(projectURL)
		b.WriteString(text[start:end])
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

func isURLChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("/.-_:~%", c) >= 0
}

// RewriteReferences links #N and !N references to the GitLab issue and merge request they point at
func RewriteReferences(text, projectURL string) string {
	text = IssueReferencePattern.ReplaceAllString(text, fmt.Sprintf("${1}%s/-/issues/${2}", projectURL))
	return MergeRequestReferencePattern.ReplaceAllString(text, fmt.Sprintf("${1}%s/-/merge_requests/${2}", projectURL))
}

// RewriteMentions replaces every @username of a participant with a link to the participant's profile.
// Longer usernames are tried first so that @alice never eats the start of @alicebob.
func RewriteMentions(text string, participants []model.Participant) string {
	if len(participants) == 0 {
		return text
	}

	profiles := make(map[string]string, len(participants))
	usernames := make([]string, 0, len(participants))
	for _, p := range participants {
		if p.Username == "" {
			continue
		}
		if _, ok := profiles[p.Username]; !ok {
			usernames = append(usernames, p.Username)
		}
		profiles[p.Username] = p.WebURL
	}
	if len(usernames) == 0 {
		return text
	}

	sort.Slice(usernames, func(i, j int) bool {
		if len(usernames[i]) != len(usernames[j]) {
			return len(usernames[i]) > len(usernames[j])
		}
		return usernames[i] < usernames[j]
	})
	quoted := make([]string, len(usernames))
	for i, u := range usernames {
		quoted[i] = regexp.QuoteMeta(u)
	}
	pattern := regexp.MustCompile("@(" + strings.Join(quoted, "|") + ")")

	return pattern.ReplaceAllStringFunc(text, func(mention string) string {
		username := mention[1:]
		return fmt.Sprintf("[@%s](%s)", username, profiles[username])
	})
}

// IssueFooter appends a link to the original GitLab issue.
// An empty description yields the footer alone.
func IssueFooter(description, issueURL string) string {
	message := fmt.Sprintf("<sub>You can find the original issue from GitLab [here](%s).</sub>\n", issueURL)
	if description == "" {
		return message
	}
	return description + "\n\n---\n" + message
}

// CommentFooter appends a link to the original GitLab note
func CommentFooter(body, noteURL string) string {
	return body + "\n\n---\n" +
		fmt.Sprintf("<sub>You can find the original comment from GitLab [here](%s).</sub>\n", noteURL)
}

// NoteURL is the anchor of a note on its GitLab issue page
func NoteURL(issueURL string, noteID int) string {
	return fmt.Sprintf("%s#note_%d", issueURL, noteID)
}
