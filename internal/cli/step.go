package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewStepCmd создаёт группу команд Transition API.
func NewStepCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Start and complete procedure steps",
	}

	cmd.AddCommand(
		newStepTransitionCmd("start", "Start a step (NOT_STARTED -> IN_PROGRESS)", clientFn, outputFn),
		newStepTransitionCmd("complete", "Complete a step (IN_PROGRESS -> COMPLETED)", clientFn, outputFn),
	)

	return cmd
}

func newStepTransitionCmd(op, short string, clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var who Identity
	var notes string

	cmd := &cobra.Command{
		Use:   op + " STEP_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			var (
				result *TransitionResponse
				err    error
			)
			if op == "start" {
				result, err = client.StartStep(args[0], who, notes)
			} else {
				result, err = client.CompleteStep(args[0], who, notes)
			}
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Step %s: %s", result.Step.Name, result.Step.Status))
			out.Print(
				[]string{"ID", "NAME", "STATUS", "UNBLOCKED"},
				[][]string{{result.Step.ID, result.Step.Name, result.Step.Status, strings.Join(result.Unblocked, ",")}},
				result,
			)
			out.Text(stats(result.Stats))
			return nil
		},
	}

	cmd.Flags().StringVar(&who.UserID, "user", "", "User ID (required)")
	cmd.Flags().StringVar(&who.Role, "role", "", "Acting role (student, parent, staff)")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes to store with the progress record")
	cmd.MarkFlagRequired("user")

	return cmd
}
