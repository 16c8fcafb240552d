package migration

import (
	"context"
	"fmt"
	"strings"

	"github.com/krrrr38/gitlab-issues-2-github/pkg/logger"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/model"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/utils"
)

// MigrateLabels creates the GitLab labels missing on GitHub and makes sure the marker label exists.
// GitHub labels are read once; labels created meanwhile by someone else are not seen.
func (m *Migrator) MigrateLabels(ctx context.Context, summary *Summary) error {
	sourceLabels, err := m.source.ListLabels(ctx)
	if err != nil {
		return err
	}
	destLabels, err := m.dest.ListLabels(ctx)
	if err != nil {
		return err
	}

	existing := make(map[string]struct{}, len(destLabels))
	for _, name := range destLabels {
		existing[strings.ToLower(name)] = struct{}{}
	}
	// names created by this run, so that a label is never created twice
	created := make(map[string]struct{})

	for _, label := range sourceLabels {
		name := strings.ToLower(label.Name)
		if _, ok := existing[name]; ok {
			continue
		}
		if _, ok := created[name]; ok {
			continue
		}
		if m.opts.isExcludedLabel(label.Name) {
			logger.Debug("Skipping excluded label", "name", label.Name)
			continue
		}

		logger.Info("Move label", "name", label.Name)
		m.progress("  * Move label '%s'", label.Name)

		// GitHub expects the hex color without "#" and rejects descriptions over 100 characters
		newLabel := model.Label{
			Name:        name,
			Color:       strings.ReplaceAll(label.Color, "#", ""),
			Description: utils.TruncateRunes(label.Description, utils.MaxLabelDescriptionLength),
		}
		if err := m.createLabel(ctx, newLabel); err != nil {
			return fmt.Errorf("failed to create label %q: %w", newLabel.Name, err)
		}
		created[name] = struct{}{}
		summary.Labels++
	}

	if !containsExact(destLabels, model.MarkerLabel.Name) {
		if _, ok := created[model.MarkerLabel.Name]; !ok {
			if err := m.createLabel(ctx, model.MarkerLabel); err != nil {
				return fmt.Errorf("failed to create marker label: %w", err)
			}
			summary.Labels++
		}
	}
	return nil
}

func containsExact(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
