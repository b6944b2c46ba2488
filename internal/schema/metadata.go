package schema

// EntityMetadata is the editor-facing description of one entity type.
type EntityMetadata struct {
	Entity         string            `json:"entity"`
	FileName       string            `json:"file_name"`
	CollectionKey  string            `json:"collection_key"`
	IDPrefix       string            `json:"id_prefix"`
	IDWidth        int               `json:"id_width"`
	IDPattern      string            `json:"id_pattern"`
	RequiredFile   bool              `json:"required_file"`
	Columns        []string          `json:"columns"`
	RequiredFields []string          `json:"required_fields"`
	References     map[string]string `json:"references"`
	FieldHelp      map[string]string `json:"field_help"`
}

// Metadata is what the editing UI needs to render forms for every entity type.
type Metadata struct {
	EntityOrder []string                  `json:"entity_order"`
	Entities    map[string]EntityMetadata `json:"entities"`
	Enums       map[string][]string       `json:"enums"`
}

// Metadata derives the editor metadata from the registry.
func (r *Registry) Metadata() Metadata {
	m := Metadata{
		EntityOrder: r.Order(),
		Entities:    make(map[string]EntityMetadata, len(r.order)),
		Enums:       make(map[string][]string),
	}
	for _, name := range r.order {
		e := r.entities[name]
		em := EntityMetadata{
			Entity:         e.Name,
			FileName:       e.FileName,
			CollectionKey:  e.CollectionKey,
			IDPrefix:       e.IDPrefix,
			IDWidth:        e.IDWidth,
			IDPattern:      e.IDPattern,
			RequiredFile:   e.RequiredFile,
			RequiredFields: r.RequiredFields(name),
			References:     make(map[string]string),
			FieldHelp:      make(map[string]string),
		}
		for _, f := range e.Fields {
			if f.Kind != KindObject && f.Kind != KindMap {
				em.Columns = append(em.Columns, f.Name)
			}
		}
		for _, ref := range e.Walk() {
			f := ref.Field
			if f.Help != "" {
				em.FieldHelp[ref.Path] = f.Help
			}
			if f.Kind.IsReference() {
				em.References[ref.Path] = f.Target
			}
			if f.Kind == KindEnum {
				m.Enums[name+"."+ref.Path] = append([]string(nil), f.Enum...)
			}
		}
		m.Entities[name] = em
	}
	return m
}
