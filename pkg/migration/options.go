package migration

import (
	"github.com/krrrr38/gitlab-issues-2-github/pkg/config"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/retry"
)

// MigrationOptions はマイグレーションのオプション設定を含む構造体
type MigrationOptions struct {
	// 移行しないラベル名（GitLab上の名前で一致）
	ExcludedLabels []string
	// 特定のIssue IIDのみを対象とする場合に指定
	FilterIssueIIDs []int
	// #N や !N をGitLabへのリンクに書き換える
	RewriteReferences bool
}

// NewMigrationOptions builds the options of the migrate command
func NewMigrationOptions(mc config.MigrateConfig) *MigrationOptions {
	return &MigrationOptions{
		ExcludedLabels:    mc.ExcludedLabels,
		FilterIssueIIDs:   mc.FilterIssueIIDs,
		RewriteReferences: mc.RewriteReferences,
	}
}

// NewRetryPolicy builds the policy wrapping every GitHub write
func NewRetryPolicy(mc config.MigrateConfig) retry.Policy {
	p := retry.DefaultPolicy()
	p.Pace = mc.Pace
	p.MaxAttempts = mc.RetryAttempts
	p.Backoff = retry.LinearBackoff(mc.RetryDelay, mc.RetryStep)
	if mc.RetryTransientOnly {
		p.Retryable = retry.IsTransient
	}
	return p
}

func (o *MigrationOptions) isExcludedLabel(name string) bool {
	for _, excluded := range o.ExcludedLabels {
		if excluded == name {
			return true
		}
	}
	return false
}

func (o *MigrationOptions) isTargetIssue(iid int) bool {
	if len(o.FilterIssueIIDs) == 0 {
		return true
	}
	for _, id := range o.FilterIssueIIDs {
		if id == iid {
			return true
		}
	}
	return false
}
