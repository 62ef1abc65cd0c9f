package main

import (
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"burnish/internal/api"
	"burnish/internal/pipeline"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		title          string
		description    string
		tags           []string
		transcriptFile string
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "submit <submission-id>",
		Short: "Submit video metadata for enrichment and moderation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}

			req := api.SubmitRequest{
				ID:          strings.TrimSpace(args[0]),
				Title:       title,
				Description: description,
				Tags:        tags,
			}
			if transcriptFile != "" {
				data, err := os.ReadFile(transcriptFile)
				if err != nil {
					return fmt.Errorf("read transcript file: %w", err)
				}
				req.Transcript = string(data)
			}

			resp, err := client.Submit(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(resp)
			}

			fmt.Fprintln(out, renderResult(resp.Result))
			if !resp.Persisted {
				fmt.Fprintln(out, "Warning: verdict was not persisted; resubmit to retry the write")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Working title")
	cmd.Flags().StringVar(&description, "description", "", "Description text")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Tag (repeatable)")
	cmd.Flags().StringVar(&transcriptFile, "transcript-file", "", "Path to a transcript excerpt")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit raw JSON")
	return cmd
}

func renderResult(result pipeline.Result) string {
	rows := [][]string{
		{"Submission", result.SubmissionID},
		{"Verdict", string(result.Verdict)},
		{"Attempts", fmt.Sprintf("%d", result.Attempts)},
	}
	if len(result.Reasons) > 0 {
		rows = append(rows, []string{"Reasons", strings.Join(result.Reasons, ", ")})
	}
	if result.Metadata != nil {
		rows = append(rows,
			[]string{"Title", result.Metadata.Title},
			[]string{"Description", result.Metadata.Description},
			[]string{"Tags", strings.Join(result.Metadata.Tags, ", ")},
			[]string{"Confidence", fmt.Sprintf("%.2f", result.Metadata.Confidence)},
			[]string{"Provider", result.Metadata.Provider + " / " + result.Metadata.Model},
		)
	}
	if !result.CompletedAt.IsZero() {
		rows = append(rows, []string{"Completed", result.CompletedAt.Format("2006-01-02 15:04:05")})
	}
	return renderTable([]string{"Field", "Value"}, rows)
}
