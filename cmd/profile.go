package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/moodify/internal/formatter"
	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/shared"
	"github.com/desertthunder/moodify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ProfileShow prints the user's recent moods and recommendations.
//
// When the backend cannot be reached the cached profile is shown and a warning logged.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	snapshot, err := r.profileManager().Load(ctx, nil)
	if err != nil {
		return err
	}
	if snapshot.Stale {
		r.logger.Warn("showing cached profile", "error", snapshot.Cause)
	}

	if cmd.Bool("json") {
		return r.writeJSON(snapshot.Profile, true)
	}
	return r.writeFormatted(cmd, func(f formatter.Format) ([]byte, error) {
		return formatter.FormatProfile(snapshot.Profile, f)
	})
}

// ProfileDeleteMood deletes one mood from the history.
func (r *Runner) ProfileDeleteMood(ctx context.Context, cmd *cli.Command) error {
	return r.deleteFromProfile(ctx, cmd, "mood",
		func(p models.Profile, i int) string { return p.RecentMoods[i].Label() },
		func(p models.Profile) int { return len(p.RecentMoods) },
		(*tasks.ProfileManager).DeleteMood,
	)
}

// ProfileDeleteRecommendation deletes one recommendation from the history.
func (r *Runner) ProfileDeleteRecommendation(ctx context.Context, cmd *cli.Command) error {
	return r.deleteFromProfile(ctx, cmd, "recommendation",
		func(p models.Profile, i int) string { return p.RecentRecommendations[i].Title() },
		func(p models.Profile) int { return len(p.RecentRecommendations) },
		(*tasks.ProfileManager).DeleteRecommendation,
	)
}

type deleteFunc func(m *tasks.ProfileManager, ctx context.Context, index int, progress chan<- tasks.ProgressUpdate) (models.Profile, error)

func (r *Runner) deleteFromProfile(
	ctx context.Context,
	cmd *cli.Command,
	name string,
	label func(models.Profile, int) string,
	length func(models.Profile) int,
	remove deleteFunc,
) error {
	position, err := parsePosition(cmd.StringArg("position"))
	if err != nil {
		return err
	}

	if err := r.requireSession(); err != nil {
		return err
	}

	manager := r.profileManager()
	snapshot, err := manager.Load(ctx, nil)
	if err != nil {
		return err
	}

	index := position - 1
	if index >= length(snapshot.Profile) {
		return fmt.Errorf("%w: no %s at position %d (have %d)", shared.ErrInvalidArgument, name, position, length(snapshot.Profile))
	}
	target := label(snapshot.Profile, index)

	if _, err := remove(manager, ctx, index, nil); err != nil {
		return fmt.Errorf("failed to delete %s, nothing was changed: %w", name, err)
	}
	return r.writePlain("✓ Deleted %s %d (%s)\n", name, position, target)
}

// parsePosition parses a 1-based list position.
func parsePosition(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: position", shared.ErrMissingArgument)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: position must be a number from 1, got %q", shared.ErrInvalidArgument, s)
	}
	return n, nil
}
