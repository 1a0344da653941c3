package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nowplaying/internal/ui"
	"github.com/urfave/cli/v3"
)

// Watch launches the live terminal view of a running service.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	api := r.apiClient(cmd.String("addr"))

	model := ui.NewModel(ctx, api, cmd.Duration("interval"))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
