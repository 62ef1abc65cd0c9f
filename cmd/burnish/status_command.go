package main

import (
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(status)
			}

			rows := [][]string{
				{"Running", strconv.FormatBool(status.Running)},
				{"PID", strconv.Itoa(status.PID)},
				{"Database", status.DatabasePath},
				{"Lock file", status.LockFilePath},
				{"In flight", strconv.Itoa(status.Inflight)},
				{"Gateway healthy", strconv.FormatBool(status.GatewayHealthy)},
			}
			for _, verdict := range []string{"accepted", "rejected", "retry_exhausted"} {
				if count, ok := status.Verdicts[verdict]; ok {
					rows = append(rows, []string{"Verdicts " + verdict, strconv.Itoa(count)})
				}
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit raw JSON")
	return cmd
}
