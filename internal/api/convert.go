package api

import (
	"time"

	"supportflow/internal/ability"
	"supportflow/internal/stage"
	"supportflow/internal/store"
)

// FromWorkflow converts a persisted workflow into its transport form.
func FromWorkflow(wf *store.Workflow) WorkflowResponse {
	if wf == nil {
		return WorkflowResponse{}
	}
	resp := WorkflowResponse{
		WorkflowID:   wf.WorkflowID,
		TicketID:     wf.TicketID,
		CurrentStage: wf.CurrentStage,
		IsComplete:   wf.IsComplete,
		Success:      wf.Success,
		Error:        wf.ErrorMessage,
		StageLogs:    wf.StageLogs,
		Errors:       wf.Errors,
		State:        wf.State,
		CreatedAt:    formatTime(wf.CreatedAt),
		UpdatedAt:    formatTime(wf.UpdatedAt),
	}
	if wf.CompletedAt != nil {
		resp.CompletedAt = formatTime(*wf.CompletedAt)
	}
	if resp.Errors == nil {
		resp.Errors = []string{}
	}
	return resp
}

// FromCatalog lists catalog stages in declaration order.
func FromCatalog(catalog *stage.Catalog) StagesResponse {
	if catalog == nil {
		return StagesResponse{Stages: []StageResponse{}}
	}
	defs := catalog.Definitions()
	out := StagesResponse{
		Entry:  string(catalog.Entry()),
		Stages: make([]StageResponse, 0, len(defs)),
	}
	for _, def := range defs {
		item := StageResponse{
			Name:      string(def.ID),
			Mode:      string(def.Mode),
			Abilities: ability.Names(def.Abilities),
			Provider:  def.Provider,
			Next:      string(def.Next),
			Prompt:    def.Prompt,
			Entry:     def.ID == catalog.Entry(),
			Terminal:  def.Terminal(),
		}
		if def.Branch != nil {
			item.Condition = string(def.Branch.Condition)
			item.Otherwise = string(def.Branch.Otherwise)
		}
		out.Stages = append(out.Stages, item)
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
