package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/shared"
	"github.com/desertthunder/moodify/internal/tasks"
	"github.com/desertthunder/moodify/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive recorder.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/moodify-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	pipeline, err := r.pipeline(true)
	if err != nil {
		return err
	}

	var program *tea.Program
	profiles := tasks.NewProfileManager(r.client, r.cache, shared.WithLogger(r.logger, "component", "profile"),
		func(p models.Profile) {
			if program != nil {
				program.Send(ui.ProfilePublishedMsg(p))
			}
		})

	model := ui.NewModel(ctx, pipeline, profiles)
	program = tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
