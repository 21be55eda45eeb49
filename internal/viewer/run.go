package viewer

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the viewer full screen until the user quits or ctx is done.
func Run(ctx context.Context, src Source) error {
	p := tea.NewProgram(New(ctx, src), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
