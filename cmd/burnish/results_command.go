package main

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"burnish/internal/pipeline"
)

func newResultsCommand(ctx *commandContext) *cobra.Command {
	var (
		verdict string
		limit   int
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "results [submission-id]",
		Short: "Show stored verdicts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				result, err := client.GetResult(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if asJSON {
					return json.NewEncoder(out).Encode(result)
				}
				fmt.Fprintln(out, renderResult(result))
				return nil
			}

			results, err := client.ListResults(cmd.Context(), verdict, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(out).Encode(results)
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "No results stored")
				return nil
			}
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				title := ""
				if result.Metadata != nil {
					title = result.Metadata.Title
				}
				rows = append(rows, []string{
					result.SubmissionID,
					string(result.Verdict),
					strings.Join(result.Reasons, ", "),
					title,
					result.CompletedAt.Format("2006-01-02 15:04:05"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Submission", "Verdict", "Reasons", "Title", "Completed"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&verdict, "verdict", "", fmt.Sprintf("Filter by verdict (%s, %s, %s)",
		pipeline.VerdictAccepted, pipeline.VerdictRejected, pipeline.VerdictRetryExhausted))
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit raw JSON")

	cmd.AddCommand(newResultsClearCommand(ctx))
	return cmd
}

func newResultsClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all stored verdicts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if err := client.ClearResults(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Results cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}
