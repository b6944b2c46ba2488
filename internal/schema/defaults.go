package schema

// Default entity type names.
const (
	Glossary      = "glossary"
	Stakeholders  = "stakeholders"
	Concerns      = "concerns"
	Capabilities  = "capabilities"
	ServiceLevels = "service_levels"
	Views         = "views"
	Risks         = "risks"
	Decisions     = "decisions"
)

const defaultIDWidth = 3

func idField() Field {
	return Field{Name: "id", Kind: KindScalar, Required: true}
}

func text(name string, required bool, help string) Field {
	return Field{Name: name, Kind: KindScalar, Required: required, Help: help}
}

func list(name, help string) Field {
	return Field{Name: name, Kind: KindList, Help: help}
}

func refs(name, target, help string) Field {
	return Field{Name: name, Kind: KindRefList, Target: target, Help: help}
}

// DefaultTypes returns the Architecture Document entity types in load order.
func DefaultTypes() []EntityType {
	return []EntityType{
		{
			Name: Glossary, CollectionKey: Glossary, IDPrefix: "GLOSS", IDWidth: defaultIDWidth,
			Fields: []Field{
				idField(),
				text("term", true, "Write a concise architecture term (e.g., Market Data Feed)."),
				text("definition", true, "Explain the term in plain language so non-experts can understand it."),
				list("aliases", "Optional synonyms used in teams or documents."),
				list("tags", "Optional categorization labels."),
			},
		},
		{
			Name: Stakeholders, CollectionKey: Stakeholders, IDPrefix: "STK", IDWidth: defaultIDWidth, RequiredFile: true,
			Fields: []Field{
				idField(),
				text("name", true, "Name of a person, team, or organization with a significant interest in the system."),
				text("description", false, "Describe goals, concerns, or responsibilities of this stakeholder."),
			},
		},
		{
			Name: Concerns, CollectionKey: Concerns, IDPrefix: "C", IDWidth: defaultIDWidth, RequiredFile: true,
			Fields: []Field{
				idField(),
				text("name", true, "Short title of an architecture concern (e.g., Availability)."),
				text("description", true, "What must be addressed and why it matters."),
				refs("stakeholders", Stakeholders, "IDs of stakeholders affected by this concern."),
				list("tags", "Optional tags such as Business, Operational, Security."),
				{
					Name: "measurement", Kind: KindObject,
					Help: "How the concern is measured: SLI, SLO, SLA or a service level reference.",
					Fields: []Field{
						text("sli", false, "Service level indicator."),
						text("slo", false, "Service level objective."),
						text("sla", false, "Service level agreement."),
						{Name: "service_level_id", Kind: KindReference, Target: ServiceLevels, Help: "Service level catalog entry."},
					},
				},
			},
		},
		{
			Name: Capabilities, CollectionKey: Capabilities, IDPrefix: "CAP", IDWidth: defaultIDWidth, RequiredFile: true,
			Fields: []Field{
				idField(),
				text("name", true, "Business or technical capability name."),
				text("description", true, "What this capability does and expected value."),
				refs("addresses_concerns", Concerns, "Concern IDs this capability addresses."),
				{Name: "constraints", Kind: KindMap, Help: "Named constraints on the capability."},
				list("tags", "Optional tags such as Business or Operational."),
			},
		},
		{
			Name: ServiceLevels, CollectionKey: ServiceLevels, IDPrefix: "SL", IDWidth: defaultIDWidth,
			Fields: []Field{
				idField(),
				text("name", true, "Service level objective name."),
				text("sli_definition", true, "Metric formula or definition."),
				text("window", true, "Measurement window, e.g., monthly."),
				text("exclusions", false, "Events excluded from measurement."),
				text("target_slo", false, "Target objective value."),
				text("contractual_sla", false, "Contractual commitment if applicable."),
			},
		},
		{
			Name: Views, CollectionKey: Views, IDPrefix: "VW", IDWidth: defaultIDWidth,
			Fields: []Field{
				idField(),
				text("name", true, "Readable view name."),
				text("description", false, "What the view shows."),
				{
					Name: "viewpoint", Kind: KindEnum,
					Enum: []string{"Context", "Functional", "Information", "Deployment", "Security"},
					Help: "Select viewpoint type (context, functional, etc.).",
				},
				refs("stakeholders", Stakeholders, "Stakeholder IDs this view serves."),
				refs("concerns", Concerns, "Concern IDs addressed by this view."),
				{Name: "diagram_links", Kind: KindLinkList, Help: "External HTTP/HTTPS links to image diagrams."},
			},
		},
		{
			Name: Risks, CollectionKey: Risks, IDPrefix: "R", IDWidth: defaultIDWidth,
			Fields: []Field{
				idField(),
				text("title", true, "Short risk statement."),
				text("description", true, "Describe cause and impact in plain language."),
				{
					Name: "type", Kind: KindEnum, Required: true,
					Enum: []string{"Operational", "Data", "Security", "Programmatic", "Compliance"},
					Help: "Risk category (operational, data, security, etc.).",
				},
				{
					Name: "status", Kind: KindEnum, Required: true,
					Enum: []string{"Open", "Mitigating", "Closed"},
					Help: "Current status of risk handling.",
				},
				{Name: "owner", Kind: KindReference, Target: Stakeholders, Required: true, Help: "Stakeholder ID responsible for this risk."},
				refs("affected_concerns", Concerns, "Concerns affected by the risk."),
				refs("affected_capabilities", Capabilities, "Capabilities affected by the risk."),
				refs("threatened_service_levels", ServiceLevels, "Service levels the risk threatens."),
				{Name: "linked_views", Kind: KindRefList, Target: Views, Advisory: true, Help: "Views that illustrate the risk."},
				text("mitigation", true, "Planned or active mitigation actions."),
			},
		},
		{
			Name: Decisions, CollectionKey: Decisions, IDPrefix: "DEC", IDWidth: defaultIDWidth,
			Fields: []Field{
				idField(),
				text("title", true, "Decision title."),
				{
					Name: "status", Kind: KindEnum, Required: true,
					Enum: []string{"Proposed", "Accepted", "Superseded", "Rejected"},
					Help: "Decision lifecycle status.",
				},
				text("date", false, "Decision date in ISO format (YYYY-MM-DD)."),
				text("decision", false, "What was decided."),
				text("rationale", false, "Why this decision was made."),
				text("alternatives_considered", false, "Alternatives that were evaluated."),
				refs("addresses_concerns", Concerns, "Concerns the decision addresses."),
				refs("affected_capabilities", Capabilities, "Capabilities the decision affects."),
				{Name: "related_risks", Kind: KindRefList, Target: Risks, Advisory: true, Help: "Risks related to the decision."},
				{Name: "related_views", Kind: KindRefList, Target: Views, Advisory: true, Help: "Views related to the decision."},
			},
		},
	}
}

// Default returns the registry of Architecture Document entity types.
func Default() *Registry {
	r, err := NewRegistry(DefaultTypes())
	if err != nil {
		panic("schema: invalid default registry: " + err.Error())
	}
	return r
}
