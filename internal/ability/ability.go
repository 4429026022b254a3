package ability

import (
	"context"
)

// Name identifies an ability understood by a capability provider.
type Name string

const (
	AcceptPayload        Name = "accept_payload"
	ParseRequestText     Name = "parse_request_text"
	ExtractEntities      Name = "extract_entities"
	NormalizeFields      Name = "normalize_fields"
	EnrichRecords        Name = "enrich_records"
	AddFlagsCalculations Name = "add_flags_calculations"
	ClarifyQuestion      Name = "clarify_question"
	ExtractAnswer        Name = "extract_answer"
	StoreAnswer          Name = "store_answer"
	KnowledgeBaseSearch  Name = "knowledge_base_search"
	StoreData            Name = "store_data"
	SolutionEvaluation   Name = "solution_evaluation"
	EscalationDecision   Name = "escalation_decision"
	UpdatePayload        Name = "update_payload"
	UpdateTicket         Name = "update_ticket"
	CloseTicket          Name = "close_ticket"
	ResponseGeneration   Name = "response_generation"
	ExecuteAPICalls      Name = "execute_api_calls"
	TriggerNotifications Name = "trigger_notifications"
	OutputPayload        Name = "output_payload"
)

// ErrorKind classifies a failed ability call.
type ErrorKind string

const (
	ErrorKindProviderRejected ErrorKind = "provider_rejected"
	ErrorKindTransport        ErrorKind = "transport"
)

// Result is the normalized outcome of one ability call. Error and ErrorKind
// are set only when Success is false.
type Result struct {
	Ability   Name           `json:"ability"`
	Provider  string         `json:"provider"`
	Success   bool           `json:"success"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorKind ErrorKind      `json:"error_kind,omitempty"`
}

// Client executes abilities against one capability provider. Implementations
// never return transport or provider faults as Go errors; they are reported on
// the Result instead.
type Client interface {
	Name() string
	Execute(ctx context.Context, ability Name, params map[string]any) Result
}

// Names converts a list of abilities into their string form.
func Names(abilities []Name) []string {
	out := make([]string, len(abilities))
	for i, a := range abilities {
		out[i] = string(a)
	}
	return out
}
