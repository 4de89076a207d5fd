package main

import (
	"fmt"
	"io"
	"time"

	"impack/internal/packpipeline"
)

func printStageTimings(out io.Writer, timings packpipeline.Timings) {
	if out == nil {
		return
	}
	stages := []packpipeline.Stage{
		packpipeline.StageResolve,
		packpipeline.StageGraph,
		packpipeline.StageShake,
		packpipeline.StageInline,
		packpipeline.StageEmit,
		packpipeline.StageWrite,
	}
	for _, stage := range stages {
		if !timings.Has(stage) {
			continue
		}
		fmt.Fprintf(out, "%-8s %.1f ms\n", stage, toMillis(timings.Duration(stage)))
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
