package model

// FormDescriptor is the resolved filter form sent to the frontend. The
// console renders the filter panel entirely from this structure.
type FormDescriptor struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	Sections       []SectionDescriptor `json:"sections"`
	SubmitEndpoint string              `json:"submit_endpoint"`
}

// SectionDescriptor is a resolved form section.
type SectionDescriptor struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Layout      string            `json:"layout"`
	Columns     int               `json:"columns,omitempty"`
	Collapsible bool              `json:"collapsible"`
	Collapsed   bool              `json:"collapsed"`
	Fields      []FieldDescriptor `json:"fields"`
}

// FieldDescriptor is a resolved field sent to the frontend. Disabled marks
// selects whose backing catalog has not loaded (or failed to load): the
// control stays visible so the layout does not jump.
type FieldDescriptor struct {
	Field       string             `json:"field"`
	Label       string             `json:"label"`
	Type        string             `json:"type"`
	Required    bool               `json:"required"`
	Multiple    bool               `json:"multiple,omitempty"`
	Disabled    bool               `json:"disabled,omitempty"`
	Options     []OptionDescriptor `json:"options,omitempty"`
	Placeholder string             `json:"placeholder,omitempty"`
	HelpText    string             `json:"help_text,omitempty"`
	DependsOn   *FieldDependency   `json:"depends_on,omitempty"`
}

// OptionDescriptor is a resolved option for selects.
type OptionDescriptor struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FieldDependency describes a client-side visibility dependency: the field
// is shown only when the referenced field equals the given value.
type FieldDependency struct {
	Field string `json:"field"`
	Value string `json:"value"`
}
