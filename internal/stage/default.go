package stage

import (
	"supportflow/internal/ability"
	"supportflow/internal/config"
)

// DefaultDefinitions returns the built-in support pipeline.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			ID: Intake, Mode: Deterministic, Provider: config.ProviderCommon, Next: Understand,
			Abilities: []ability.Name{ability.AcceptPayload},
			Prompt:    "Accept the incoming support request payload",
		},
		{
			ID: Understand, Mode: Deterministic, Provider: config.ProviderCommon, Next: Prepare,
			Abilities: []ability.Name{ability.ParseRequestText, ability.ExtractEntities},
			Prompt:    "Parse the request text and extract entities",
		},
		{
			ID: Prepare, Mode: Deterministic, Provider: config.ProviderCommon, Next: Ask,
			Abilities: []ability.Name{ability.NormalizeFields, ability.EnrichRecords, ability.AddFlagsCalculations},
			Prompt:    "Normalize fields, enrich customer records, and compute flags",
		},
		{
			ID: Ask, Mode: Dynamic, Provider: config.ProviderCommon, Next: Wait,
			Abilities: []ability.Name{ability.ClarifyQuestion},
			Branch:    &Branch{Condition: ConditionClarificationNeeded, Predicate: predicates[ConditionClarificationNeeded], Otherwise: Complete},
			Prompt:    "Ask the customer a clarifying question when entity confidence is low",
		},
		{
			ID: Wait, Mode: Deterministic, Provider: config.ProviderCommon, Next: Retrieve,
			Abilities: []ability.Name{ability.ExtractAnswer, ability.StoreAnswer},
			Prompt:    "Capture and store the customer's answer",
		},
		{
			ID: Retrieve, Mode: Deterministic, Provider: config.ProviderAtlas, Next: Decide,
			Abilities: []ability.Name{ability.KnowledgeBaseSearch, ability.StoreData},
			Prompt:    "Search the knowledge base and store the findings",
		},
		{
			ID: Decide, Mode: Dynamic, Provider: config.ProviderCommon, Next: Update,
			Abilities: []ability.Name{ability.SolutionEvaluation, ability.EscalationDecision, ability.UpdatePayload},
			Branch:    &Branch{Condition: ConditionEscalationRequired, Predicate: predicates[ConditionEscalationRequired], Otherwise: Complete},
			Prompt:    "Score candidate solutions and decide on escalation",
		},
		{
			ID: Update, Mode: Deterministic, Provider: config.ProviderAtlas, Next: Create,
			Abilities: []ability.Name{ability.UpdateTicket, ability.CloseTicket},
			Prompt:    "Update and close the ticket",
		},
		{
			ID: Create, Mode: Deterministic, Provider: config.ProviderCommon, Next: Do,
			Abilities: []ability.Name{ability.ResponseGeneration},
			Prompt:    "Generate the customer response",
		},
		{
			ID: Do, Mode: Deterministic, Provider: config.ProviderAtlas, Next: Complete,
			Abilities: []ability.Name{ability.ExecuteAPICalls, ability.TriggerNotifications},
			Prompt:    "Execute downstream API calls and notifications",
		},
		{
			ID: Complete, Mode: Deterministic, Provider: config.ProviderCommon,
			Abilities: []ability.Name{ability.OutputPayload},
			Prompt:    "Produce the final payload",
		},
	}
}

// DefaultCatalog returns the built-in support pipeline rooted at INTAKE.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(Intake, DefaultDefinitions())
	if err != nil {
		panic("stage: default catalog invalid: " + err.Error())
	}
	return c
}
