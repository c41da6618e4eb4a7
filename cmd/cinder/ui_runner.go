package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"cinder/internal/driver"
	"cinder/internal/ui"
)

type dirOutcome struct {
	results []*driver.Result
	err     error
}

// runDiagnoseDirWithUI runs a directory diagnosis behind a Bubble Tea
// progress view. Results are returned after the view quits.
func runDiagnoseDirWithUI(ctx context.Context, title, dir string, paths []string, opts driver.Options) ([]*driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan dirOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Events = events
		results, err := driver.DiagnoseDir(ctx, dir, optsCopy)
		outcomeCh <- dirOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, paths, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
