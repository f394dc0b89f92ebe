package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/hwbench/station/pkg/api"
)

// Render produces the operator-facing plain-text report for a run
func Render(res *api.RunResult) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Run:      %s\n", res.ID)
	if res.Station != "" {
		fmt.Fprintf(&b, "Station:  %s\n", res.Station)
	}
	fmt.Fprintf(&b, "Verdict:  %s\n", res.Verdict)
	fmt.Fprintf(&b, "Stop:     %s\n", res.Stop)
	if res.Error != "" {
		fmt.Fprintf(&b, "Error:    %s\n", res.Error)
	}
	fmt.Fprintf(&b, "Started:  %s\n",
		res.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Elapsed:  %s\n", res.EndedAt.Sub(res.StartedAt))

	b.WriteString("\nSteps:\n")
	for i, exec := range res.Steps {
		renderStep(&b, fmt.Sprintf("%3d", i+1), exec)
	}
	if res.Finalizer != nil {
		renderStep(&b, "fin", res.Finalizer)
	}
	return b.Bytes()
}

func renderStep(b *bytes.Buffer, label string, exec *api.StepExecution) {
	elapsed := "-"
	if !exec.StartedAt.IsZero() {
		elapsed = exec.EndedAt.Sub(exec.StartedAt).String()
	}
	fmt.Fprintf(b, "  [%s] %-30s %-8s %s\n",
		label, exec.Meta.DisplayName, exec.Outcome.Status, elapsed)
	if exec.Outcome.Detail != "" {
		fmt.Fprintf(b, "        detail: %s\n", exec.Outcome.Detail)
	}
	if exec.Outcome.Cause != "" {
		fmt.Fprintf(b, "        cause: %s\n", exec.Outcome.Cause)
	}
	for _, line := range exec.Logs {
		fmt.Fprintf(b, "        %s> %s\n", line.Stream, line.Text)
	}
}
