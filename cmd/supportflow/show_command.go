package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"supportflow/internal/api"
	"supportflow/internal/store"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var limit int

	cmd := &cobra.Command{
		Use:   "show [workflow-id]",
		Short: "Show a persisted workflow, or list recent workflows",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			if len(args) == 0 {
				items, err := st.ListWorkflows(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("list workflows: %w", err)
				}
				if jsonOut {
					views := make([]api.WorkflowResponse, 0, len(items))
					for _, wf := range items {
						view := api.FromWorkflow(wf)
						view.State = nil
						views = append(views, view)
					}
					return writeJSON(cmd, views)
				}
				printWorkflowList(cmd, items)
				return nil
			}

			wf, err := st.GetWorkflow(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("load workflow: %w", err)
			}
			if wf == nil {
				return fmt.Errorf("workflow %s not found", args[0])
			}
			if jsonOut {
				return writeJSON(cmd, api.FromWorkflow(wf))
			}
			out := cmd.OutOrStdout()
			if !wf.IsComplete {
				fmt.Fprintln(out, renderStatusLine("Status", statusWarn, "in progress", shouldColorize(out)))
			}
			renderSummary(out, summary{
				Success:      wf.Success,
				TicketID:     wf.TicketID,
				WorkflowID:   wf.WorkflowID,
				CurrentStage: wf.CurrentStage,
				Error:        wf.ErrorMessage,
				Errors:       wf.Errors,
				StageLogs:    wf.StageLogs,
			}, shouldColorize(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of workflows to list")
	return cmd
}

func printWorkflowList(cmd *cobra.Command, items []*store.Workflow) {
	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "No workflows recorded")
		return
	}
	rows := make([][]string, 0, len(items))
	for _, wf := range items {
		outcome := "running"
		if wf.IsComplete {
			outcome = "aborted"
			if wf.Success {
				outcome = "completed"
			}
		}
		rows = append(rows, []string{
			wf.WorkflowID,
			wf.TicketID,
			stageLabel(wf.CurrentStage),
			outcome,
			strconv.Itoa(len(wf.StageLogs)),
			wf.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	fmt.Fprintln(out, renderTable("",
		[]string{"Workflow", "Ticket", "Stage", "Outcome", "Visits", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
}
