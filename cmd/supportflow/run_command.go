package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"supportflow/internal/api"
	"supportflow/internal/daemonrun"
	"supportflow/internal/logging"
	"supportflow/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var req api.SupportRequest
	var demo bool
	var jsonOut bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one support request through the stage catalog",
		Long: `Run one support request through the stage catalog and print the result.

Use --demo to submit the built-in John Smith sample request.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			level := strings.TrimSpace(logLevel)
			if level == "" {
				level = "warn"
			}
			logger, err := logging.New(logging.Options{
				Level:            level,
				Format:           cfg.Logging.Format,
				OutputPaths:      []string{"stderr"},
				ErrorOutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			rt, err := daemonrun.Assemble(cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			if demo {
				req = api.DemoRequest
			}
			result, err := rt.Service.Submit(cmd.Context(), req)
			if err != nil {
				return err
			}
			if jsonOut {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				printResult(cmd, result)
			}
			if !result.Success {
				return fmt.Errorf("workflow aborted: %s", result.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.CustomerName, "name", "", "Customer name")
	cmd.Flags().StringVar(&req.CustomerEmail, "email", "", "Customer email address")
	cmd.Flags().StringVarP(&req.Query, "query", "q", "", "Support request text")
	cmd.Flags().StringVarP(&req.Priority, "priority", "p", "medium", "Priority: low, medium, high, or critical")
	cmd.Flags().StringVar(&req.TicketID, "ticket", "", "Ticket identifier (generated when omitted)")
	cmd.Flags().BoolVar(&demo, "demo", false, "Submit the built-in sample request")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the workflow result as JSON")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level for stderr output (default warn)")
	cmd.MarkFlagsMutuallyExclusive("demo", "query")
	return cmd
}

func printResult(cmd *cobra.Command, result workflow.Result) {
	out := cmd.OutOrStdout()
	renderSummary(out, summary{
		Success:      result.Success,
		TicketID:     result.TicketID,
		WorkflowID:   result.WorkflowID,
		CurrentStage: result.CurrentStage,
		Error:        result.Error,
		Errors:       result.Errors,
		StageLogs:    result.StageLogs,
	}, shouldColorize(out) && os.Getenv("NO_COLOR") == "")
}
