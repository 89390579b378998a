package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/moodify/internal/repositories"
	"github.com/desertthunder/moodify/internal/shared"
	"github.com/urfave/cli/v3"
)

type cacheEntry struct {
	Key       string    `json:"key"`
	Present   bool      `json:"present"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
	Summary   string    `json:"summary,omitempty"`
}

// CacheShow lists the cached session and profile without revealing tokens.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	entries := []cacheEntry{r.cacheEntry(repositories.KeySession), r.cacheEntry(repositories.KeyProfile)}

	if session, err := r.cache.Session(); err == nil {
		entries[0].Summary = fmt.Sprintf("user %s", session.Username)
	}
	if profile, err := r.cache.Profile(); err == nil {
		entries[1].Summary = fmt.Sprintf("%d moods, %d recommendations", len(profile.RecentMoods), len(profile.RecentRecommendations))
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	r.writePlainHeader("Cache")
	for _, e := range entries {
		if !e.Present {
			r.writePlain("%-18s (empty)\n", e.Key)
			continue
		}
		r.writePlain("%-18s %s  updated %s\n", e.Key, e.Summary, e.UpdatedAt.Local().Format(time.DateTime))
	}
	return nil
}

func (r *Runner) cacheEntry(key string) cacheEntry {
	e := cacheEntry{Key: key}
	updated, err := r.cache.UpdatedAt(key)
	switch {
	case err == nil:
		e.Present, e.UpdatedAt = true, updated
	case !errors.Is(err, shared.ErrCacheMiss):
		r.logger.Warn("failed to read cache entry", "key", key, "error", err)
	}
	return e
}

// CacheClear removes the cached profile. The session is kept; use 'auth logout' to drop it.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	if err := r.cache.Delete(repositories.KeyProfile); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	r.logger.Info("profile cache cleared")
	return r.writePlain("✓ Cached profile removed\n")
}
