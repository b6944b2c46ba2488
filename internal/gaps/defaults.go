package gaps

import (
	"github.com/ajitpratap0/adlint/internal/diag"
	"github.com/ajitpratap0/adlint/internal/schema"
)

// DefaultRules returns the built-in traceability rule set.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "capability-without-concerns", Kind: KindEmpty, Entity: schema.Capabilities,
			Code: diag.CodeGap, Fields: []string{"addresses_concerns"},
			Message: "Capability {id} does not address any concerns",
		},
		{
			Name: "operational-concern-without-measurement", Kind: KindEmpty, Entity: schema.Concerns,
			Code:     diag.CodeMissingMeasurement,
			When:     &Condition{Field: "tags", Contains: "Operational"},
			Fields:   []string{"measurement.sli", "measurement.service_level_id"},
			Location: "measurement",
			Message:  "Operational concern {id} has neither an SLI nor a service level",
		},
		{
			Name: "slo-without-indicator", Kind: KindEmpty, Entity: schema.Concerns,
			Code:     diag.CodeIncompleteSLO,
			When:     &Condition{AnyNonEmpty: []string{"measurement.slo", "measurement.sla"}},
			Fields:   []string{"measurement.sli", "measurement.service_level_id"},
			Location: "measurement",
			Message:  "Concern {id} states an SLO/SLA without an SLI or service level to measure it",
		},
		{
			Name: "risk-without-concerns", Kind: KindEmpty, Entity: schema.Risks,
			Code: diag.CodeGap, Fields: []string{"affected_concerns"},
			Message: "Risk {id} is not linked to any concern",
		},
		{
			Name: "risk-without-capabilities", Kind: KindEmpty, Entity: schema.Risks,
			Code: diag.CodeGap, Fields: []string{"affected_capabilities"},
			Message: "Risk {id} is not linked to any capability",
		},
		{
			Name: "stakeholder-without-concerns", Kind: KindUnreferenced, Entity: schema.Stakeholders,
			Code:         diag.CodeGap,
			ReferencedBy: &Edge{Entity: schema.Concerns, Field: "stakeholders"},
			Message:      "Stakeholder {id} is not associated with any concern",
		},
		{
			Name: "concern-without-capability", Kind: KindUnreferenced, Entity: schema.Concerns,
			Code:         diag.CodeGap,
			ReferencedBy: &Edge{Entity: schema.Capabilities, Field: "addresses_concerns"},
			Message:      "Concern {id} is not addressed by any capability",
		},
		{
			Name: "unused-service-level", Kind: KindUnreferenced, Entity: schema.ServiceLevels,
			Code:         diag.CodeUnused,
			ReferencedBy: &Edge{Entity: schema.Concerns, Field: "measurement.service_level_id"},
			Message:      "Service level {id} is not referenced by any concern",
		},
		{
			Name: "risk-without-views", Kind: KindEmpty, Entity: schema.Risks,
			Code: diag.CodeGap, Fields: []string{"linked_views"},
			Message: "Risk {id} has no linked views",
		},
		{
			Name: "programmatic-risk-without-timeline-view", Kind: KindMatch, Entity: schema.Risks,
			Code:     diag.CodeMissingViewLink,
			When:     &Condition{Field: "type", MatchesAny: []string{"program", "acquisition", "schedule", "timeline"}},
			Unless:   &Condition{Field: "linked_views", MatchesAny: []string{"AcV-2"}},
			Location: "linked_views",
			Message:  "Programmatic risk {id} does not link the AcV-2 programme timeline view",
		},
		{
			Name: "business-operational-concern-without-operational-capability", Kind: KindUnserved, Entity: schema.Concerns,
			Code:         diag.CodeGap,
			When:         &Condition{Field: "tags", ContainsAll: []string{"Business", "Operational"}},
			ReferencedBy: &Edge{Entity: schema.Capabilities, Field: "addresses_concerns"},
			Referrer:     &Condition{Field: "tags", Contains: "Operational"},
			Message:      "Concern {id} is tagged Business and Operational but no Operational capability addresses it",
		},
	}
}
