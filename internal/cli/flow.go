package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Procedura/internal/catalog"
	"github.com/shaiso/Procedura/internal/engine"
)

// NewFlowCmd создаёт группу команд для работы с процедурами.
func NewFlowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Inspect procedure flows",
	}

	cmd.AddCommand(
		newFlowListCmd(clientFn, outputFn),
		newFlowShowCmd(clientFn, outputFn),
		newFlowValidateCmd(clientFn, outputFn),
	)

	return cmd
}

func newFlowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListFlowsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List procedure flows",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			flows, err := client.ListFlows(opts)
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "TYPE", "UNIVERSITY", "ACTIVE"}
			rows := make([][]string, len(flows))
			for i, f := range flows {
				rows[i] = []string{f.ID, f.Name, f.FlowType, f.UniversityID, strconv.FormatBool(f.IsActive)}
			}

			out.Print(headers, rows, flows)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.UniversityID, "university", "", "Filter by university ID")
	cmd.Flags().StringVar(&opts.FlowType, "type", "", "Filter by flow type (admission, graduation, ...)")
	cmd.Flags().StringVar(&opts.Active, "active", "", "Filter by active flag (true/false)")

	return cmd
}

func newFlowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var universityID, userID string

	cmd := &cobra.Command{
		Use:   "show FLOW_ID",
		Short: "Show flow steps with resolved statuses",
		Long: "Show flow steps with resolved statuses.\n\n" +
			"Without --user the flow is shown as an anonymous preview.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			detail, err := client.GetFlowDetail(universityID, args[0], userID)
			if err != nil {
				return err
			}

			headers := []string{"ORDER", "ID", "NAME", "STATUS", "CAN_START", "REQUIRED", "DEPENDS_ON"}
			rows := make([][]string, len(detail.Steps))
			for i, s := range detail.Steps {
				rows[i] = []string{
					strconv.Itoa(s.StepOrder),
					s.ID,
					s.Name,
					s.Status,
					canStart(s.CanStart),
					strconv.FormatBool(s.IsRequired),
					strings.Join(s.DependsOn, ","),
				}
			}

			out.Text(fmt.Sprintf("%s (%s)", detail.Name, detail.FlowType))
			out.Print(headers, rows, detail)
			if userID != "" {
				out.Text(stats(detail.Stats))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&universityID, "university", "", "University ID (required)")
	cmd.Flags().StringVar(&userID, "user", "", "Resolve statuses for this user ID")
	cmd.MarkFlagRequired("university")

	return cmd
}

func newFlowValidateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FLOW_ID|FILE",
		Short: "Check a flow for dependency cycles and dangling references",
		Long: "Check a flow for dependency cycles and dangling references.\n\n" +
			"A UUID argument is validated by the API server. Any other argument is read\n" +
			"as a JSON catalogue file and every flow in it is validated locally.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			var results []ValidationResponse
			if _, err := uuid.Parse(args[0]); err == nil {
				v, err := clientFn().ValidateFlow(args[0])
				if err != nil {
					return err
				}
				results = append(results, *v)
			} else {
				local, err := ValidateFile(args[0])
				if err != nil {
					return err
				}
				results = local
			}

			headers := []string{"FLOW_ID", "VALID", "STEPS", "ERROR"}
			rows := make([][]string, len(results))
			invalid := 0
			for i, v := range results {
				msg := ""
				if v.Error != nil {
					msg = v.Error.Message
					invalid++
				}
				rows[i] = []string{v.FlowID, strconv.FormatBool(v.Valid), strconv.Itoa(v.Steps), msg}
			}
			out.Print(headers, rows, results)

			if invalid > 0 {
				return fmt.Errorf("%d of %d flows misconfigured", invalid, len(results))
			}
			return nil
		},
	}
}

// ValidateFile проверяет все процедуры JSON-файла каталога без обращения к API.
func ValidateFile(path string) ([]ValidationResponse, error) {
	entries, err := catalog.ReadFile(path)
	if err != nil {
		return nil, err
	}

	results := make([]ValidationResponse, 0, len(entries))
	for _, e := range entries {
		v := ValidationResponse{FlowID: e.Flow.ID.String()}

		g, err := engine.BuildGraph(e.Flow.ID, e.Steps)
		if err != nil {
			cfgErr := engine.AsConfigurationError(err)
			if cfgErr == nil {
				return nil, err
			}
			v.Error = configurationError(cfgErr)
			results = append(results, v)
			continue
		}

		v.Valid = true
		v.Steps = g.Size()
		for _, id := range g.StepIDs() {
			v.Order = append(v.Order, id.String())
		}
		results = append(results, v)
	}
	return results, nil
}

func configurationError(e *engine.ConfigurationError) *ConfigurationErrorResponse {
	resp := &ConfigurationErrorResponse{
		FlowID:  e.FlowID.String(),
		Field:   e.Field,
		Message: e.Error(),
	}
	if e.StepID != uuid.Nil {
		resp.StepID = e.StepID.String()
	}
	for _, id := range e.Cycle {
		resp.Cycle = append(resp.Cycle, id.String())
	}
	return resp
}
