package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// NewRunCmd создаёт группу команд для управления runs.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Manage runs",
	}

	cmd.AddCommand(
		newRunCreateCmd(clientFn, outputFn),
		newRunListCmd(clientFn, outputFn),
		newRunShowCmd(clientFn, outputFn),
		newRunOutputsCmd(clientFn, outputFn),
	)
	for _, action := range []string{"start", "complete", "fail", "abort"} {
		cmd.AddCommand(newRunMarkCmd(action, clientFn, outputFn))
	}

	return cmd
}

var runHeaders = []string{"ID", "NAMESPACE", "JOB", "STATE", "STARTED", "ENDED", "CREATED"}

func runRow(r RunResponse) []string {
	return []string{r.ID, r.Namespace, r.Job, r.State, orDash(r.StartedAt), orDash(r.EndedAt), r.CreatedAt}
}

func newRunCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var args []string
	var nominalStart, nominalEnd string

	cmd := &cobra.Command{
		Use:   "create NAMESPACE JOB",
		Short: "Create a new run for a job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, pos []string) error {
			client := clientFn()
			out := outputFn()

			req := CreateRunRequest{
				NominalStartTime: nominalStart,
				NominalEndTime:   nominalEnd,
			}
			parsed, err := parseKeyValues(args)
			if err != nil {
				return err
			}
			req.Args = parsed

			run, err := client.CreateRun(pos[0], pos[1], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run created: %s", run.ID))
			out.Print(runHeaders, [][]string{runRow(*run)}, run)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&args, "arg", nil, "Run argument as KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&nominalStart, "nominal-start", "", "Nominal start time (RFC 3339)")
	cmd.Flags().StringVar(&nominalEnd, "nominal-end", "", "Nominal end time (RFC 3339)")

	return cmd
}

func newRunListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list NAMESPACE JOB",
		Short: "List runs of a job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := clientFn().ListRuns(args[0], args[1], limit)
			if err != nil {
				return err
			}

			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = runRow(r)
			}
			outputFn().Print(runHeaders, rows, runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newRunShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := clientFn().GetRun(args[0])
			if err != nil {
				return err
			}

			out := outputFn()
			if out.jsonMode {
				out.JSON(run)
				return nil
			}

			out.Table(runHeaders, [][]string{runRow(*run)})
			if run.DurationMs > 0 {
				fmt.Fprintf(out.w, "\nDuration: %dms\n", run.DurationMs)
			}
			if len(run.Args) > 0 {
				fmt.Fprintln(out.w, "\nArgs:")
				for _, k := range sortedKeys(run.Args) {
					fmt.Fprintf(out.w, "  %s=%s\n", k, run.Args[k])
				}
			}
			return nil
		},
	}
}

func newRunOutputsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "outputs RUN_ID",
		Short: "List dataset versions written by a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputs, err := clientFn().ListRunOutputs(args[0])
			if err != nil {
				return err
			}
			printVersions(outputFn(), outputs)
			return nil
		},
	}
}

func newRunMarkCmd(action string, clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   action + " RUN_ID",
		Short: "Mark a run with the " + strings.ToUpper(action) + " transition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := clientFn().MarkRun(args[0], action)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Run %s is %s", run.ID, run.State))
			out.Print(runHeaders, [][]string{runRow(*run)}, run)
			return nil
		},
	}
}

// parseKeyValues разбирает пары KEY=VALUE.
func parseKeyValues(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	result := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument format %q, expected KEY=VALUE", kv)
		}
		result[key] = value
	}
	return result, nil
}

func printVersions(out *Output, versions []VersionResponse) {
	headers := []string{"NAMESPACE", "DATASET", "VERSION", "RUN_ID", "CREATED"}
	rows := make([][]string, len(versions))
	for i, v := range versions {
		runID := "-"
		if v.RunID != nil {
			runID = *v.RunID
		}
		rows[i] = []string{v.Namespace, v.Dataset, v.Version, runID, v.CreatedAt}
	}
	out.Print(headers, rows, versions)
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
