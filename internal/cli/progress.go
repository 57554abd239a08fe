package cli

import (
	"github.com/spf13/cobra"
)

// NewProgressCmd создаёт группу команд для просмотра прогресса.
func NewProgressCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Inspect user progress",
	}

	cmd.AddCommand(newProgressListCmd(clientFn, outputFn))
	return cmd
}

func newProgressListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list USER_ID",
		Short: "List stored progress records of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			records, err := client.ListUserProgress(args[0])
			if err != nil {
				return err
			}

			headers := []string{"STEP_ID", "FLOW_ID", "STATUS", "STARTED", "COMPLETED", "NOTES"}
			rows := make([][]string, len(records))
			for i, p := range records {
				rows[i] = []string{p.StepID, p.FlowID, p.Status, p.StartedAt, p.CompletedAt, p.Notes}
			}

			out.Print(headers, rows, records)
			return nil
		},
	}
}
