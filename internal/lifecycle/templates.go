package lifecycle

// TemplateStep is one named step in a workflow template.
type TemplateStep struct {
	Number   int    `json:"step_number"`
	Name     string `json:"step_name"`
	RoleHint string `json:"role_hint"`
}

// Template is a static, ordered approval sequence definition. The
// catalog is constant at process start; workflows snapshot the steps at
// instantiation so catalog changes never affect in-flight instances.
type Template struct {
	Type  string         `json:"type"`
	Label string         `json:"label"`
	Steps []TemplateStep `json:"steps"`
}

var catalog = map[string]Template{
	"STANDARD_APPROVAL": {
		Type:  "STANDARD_APPROVAL",
		Label: "Standard document approval",
		Steps: []TemplateStep{
			{Number: 1, Name: "Technical review", RoleHint: "Lead Engineer"},
			{Number: 2, Name: "Quality check", RoleHint: "QA Manager"},
			{Number: 3, Name: "Commercial review", RoleHint: "Commercial Manager"},
			{Number: 4, Name: "Final approval", RoleHint: "Project Director"},
		},
	},
	"DOCUMENT_REVIEW": {
		Type:  "DOCUMENT_REVIEW",
		Label: "Document review",
		Steps: []TemplateStep{
			{Number: 1, Name: "Discipline check", RoleHint: "Discipline Lead"},
			{Number: 2, Name: "Coordination review", RoleHint: "Design Coordinator"},
			{Number: 3, Name: "Issue for use", RoleHint: "Document Controller"},
		},
	},
	"NCR_SIGNOFF": {
		Type:  "NCR_SIGNOFF",
		Label: "Non-conformance sign-off",
		Steps: []TemplateStep{
			{Number: 1, Name: "Remedial works inspection", RoleHint: "Site Inspector"},
			{Number: 2, Name: "Close-out approval", RoleHint: "Quality Manager"},
		},
	},
	"TRANSMITTAL_ACK": {
		Type:  "TRANSMITTAL_ACK",
		Label: "Transmittal acknowledgement",
		Steps: []TemplateStep{
			{Number: 1, Name: "Receipt confirmation", RoleHint: "Document Controller"},
			{Number: 2, Name: "Distribution", RoleHint: "Project Administrator"},
		},
	},
}

// TemplateByType looks up a workflow template.
func TemplateByType(templateType string) (Template, bool) {
	t, ok := catalog[templateType]
	return t, ok
}

// TemplateTypes returns the known template type identifiers.
func TemplateTypes() []string {
	types := make([]string, 0, len(catalog))
	for k := range catalog {
		types = append(types, k)
	}
	return types
}
