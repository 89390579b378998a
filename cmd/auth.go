package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/repositories"
	"github.com/desertthunder/moodify/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthRegister creates an account and stores the returned session.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	username, password, err := r.credentials(cmd)
	if err != nil {
		return err
	}
	email, err := r.prompt("Email", cmd.String("email"))
	if err != nil {
		return err
	}

	if err := r.openStore(); err != nil {
		return err
	}

	r.logger.Info("registering", "username", username)
	session, err := r.client.Register(ctx, username, password, email)
	if err != nil {
		return err
	}
	return r.saveSession(session, "Registered")
}

// AuthLogin exchanges credentials for a session and stores it.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	username, password, err := r.credentials(cmd)
	if err != nil {
		return err
	}

	if err := r.openStore(); err != nil {
		return err
	}

	r.logger.Info("logging in", "username", username)
	session, err := r.client.Login(ctx, username, password)
	if err != nil {
		return err
	}
	return r.saveSession(session, "Logged in")
}

func (r *Runner) credentials(cmd *cli.Command) (username, password string, err error) {
	if username, err = r.prompt("Username", cmd.String("username")); err != nil {
		return "", "", err
	}
	if password, err = r.prompt("Password", cmd.String("password")); err != nil {
		return "", "", err
	}
	if username == "" || password == "" {
		return "", "", fmt.Errorf("%w: username and password", shared.ErrMissingArgument)
	}
	return username, password, nil
}

func (r *Runner) saveSession(session *models.Session, verb string) error {
	if err := r.cache.SaveSession(session); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	r.logger.Info("session stored", "username", session.Username)
	return r.writePlain("✓ %s as %s\n", verb, session.Username)
}

// AuthLogout removes the stored session and the cached profile.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	if err := r.cache.ClearSession(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	if err := r.cache.Delete(repositories.KeyProfile); err != nil {
		r.logger.Warn("failed to clear cached profile", "error", err)
	}
	r.client.SetSession(nil)
	r.logger.Info("logged out")
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus reports the stored session and whether the backend still accepts it.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	session := r.client.Session()
	if !session.Authenticated() {
		return r.writePlain("Authentication: ✗ Not logged in\n")
	}

	r.writePlain("User: %s\n", session.Username)
	if session.Email != "" {
		r.writePlain("Email: %s\n", session.Email)
	}

	snapshot, err := r.profileManager().Load(ctx, nil)
	switch {
	case err == nil && snapshot.Stale:
		r.logger.Warn("backend unreachable", "error", snapshot.Cause)
		return r.writePlain("Authentication: ? Backend unreachable (%v)\n", snapshot.Cause)
	case err == nil:
		return r.writePlain("Authentication: ✓ Authenticated\n")
	case errors.Is(err, shared.ErrNotAuthenticated):
		return r.writePlain("Authentication: ✗ Session expired, log in again\n")
	default:
		r.logger.Warn("backend unreachable", "error", err)
		return r.writePlain("Authentication: ? Backend unreachable (%v)\n", err)
	}
}
