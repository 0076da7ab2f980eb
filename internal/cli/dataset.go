package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDatasetCmd создаёт группу команд для работы с datasets.
func NewDatasetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage datasets",
	}

	cmd.AddCommand(
		newDatasetListCmd(clientFn, outputFn),
		newDatasetShowCmd(clientFn, outputFn),
		newDatasetPutCmd(clientFn, outputFn),
		newDatasetVersionsCmd(clientFn, outputFn),
	)

	return cmd
}

var datasetHeaders = []string{"NAMESPACE", "NAME", "TYPE", "PHYSICAL_NAME", "SOURCE", "CURRENT_VERSION", "UPDATED"}

func datasetRow(d DatasetResponse) []string {
	return []string{d.Namespace, d.Name, d.Type, d.PhysicalName, d.SourceName, orDash(d.CurrentVersion), d.UpdatedAt}
}

func newDatasetListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list NAMESPACE",
		Short: "List datasets in a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets, err := clientFn().ListDatasets(args[0], limit)
			if err != nil {
				return err
			}

			rows := make([][]string, len(datasets))
			for i, d := range datasets {
				rows[i] = datasetRow(d)
			}
			outputFn().Print(datasetHeaders, rows, datasets)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newDatasetShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAMESPACE DATASET",
		Short: "Show dataset details",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := clientFn().GetDataset(args[0], args[1])
			if err != nil {
				return err
			}

			out := outputFn()
			if out.jsonMode {
				out.JSON(ds)
				return nil
			}

			out.Table(datasetHeaders, [][]string{datasetRow(*ds)})
			if ds.Description != "" {
				fmt.Fprintf(out.w, "\nDescription: %s\n", ds.Description)
			}
			if ds.SchemaLocation != "" {
				fmt.Fprintf(out.w, "Schema: %s\n", ds.SchemaLocation)
			}
			return nil
		},
	}
}

func newDatasetPutCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req DatasetRequest
	var runID string
	var legacy bool

	cmd := &cobra.Command{
		Use:   "put NAMESPACE DATASET",
		Short: "Create or update a dataset",
		Long: `Create or update a dataset.

With --run-id the write is attributed to the run and a new dataset
version is recorded when the metadata changes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID != "" {
				req.RunID = &runID
			}

			ds, err := clientFn().PutDataset(args[0], args[1], req, legacy)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Dataset saved: %s/%s", ds.Namespace, ds.Name))
			out.Print(datasetHeaders, [][]string{datasetRow(*ds)}, ds)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Type, "type", "DB_TABLE", "Dataset type (DB_TABLE, STREAM)")
	cmd.Flags().StringVar(&req.PhysicalName, "physical-name", "", "Physical name in the source (required)")
	cmd.Flags().StringVar(&req.SourceName, "source-name", "", "Source name (required)")
	cmd.Flags().StringVar(&req.Description, "description", "", "Dataset description")
	cmd.Flags().StringVar(&req.SchemaLocation, "schema-location", "", "Schema location URL")
	cmd.Flags().StringVar(&runID, "run-id", "", "Run that produced this write")
	cmd.Flags().BoolVar(&legacy, "legacy", false, "Use the legacy create-or-update route")
	_ = cmd.MarkFlagRequired("physical-name")
	_ = cmd.MarkFlagRequired("source-name")

	return cmd
}

func newDatasetVersionsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "versions NAMESPACE DATASET",
		Short: "List dataset versions, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			versions, err := clientFn().ListDatasetVersions(args[0], args[1], limit)
			if err != nil {
				return err
			}
			printVersions(outputFn(), versions)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}
