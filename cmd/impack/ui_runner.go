package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"impack/internal/packpipeline"
	"impack/internal/ui"
)

type packOutcome struct {
	result packpipeline.PackResult
	err    error
}

func runPackWithUI(ctx context.Context, title string, req *packpipeline.PackRequest) (packpipeline.PackResult, error) {
	if req == nil {
		return packpipeline.PackResult{}, fmt.Errorf("missing pack request")
	}
	events := make(chan packpipeline.Event, 256)
	outcomeCh := make(chan packOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = packpipeline.ChannelSink{Ch: events}
		res, err := packpipeline.Pack(ctx, &reqCopy)
		outcomeCh <- packOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
