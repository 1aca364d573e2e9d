package form

import "strings"

// FieldSpec is one row of a form definition sheet.
type FieldSpec struct {
	Field       string `json:"Field"`
	Type        string `json:"Type"`
	Label       string `json:"Label"`
	Placeholder string `json:"Placeholder"`
	Options     string `json:"Options"`
	Mandatory   string `json:"Mandatory"`
	Style       string `json:"Style"`
	Rules       string `json:"Rules"`
	Extra       string `json:"Extra"`
}

// Required reports whether the field is marked mandatory ("x").
func (s FieldSpec) Required() bool {
	return strings.TrimSpace(s.Mandatory) == "x"
}

// TypeName returns the declared type in lower case, defaulting to "text".
// The wrapper class, the input type and the control kind all derive from it.
func (s FieldSpec) TypeName() string {
	if t := strings.TrimSpace(s.Type); t != "" {
		return strings.ToLower(t)
	}
	return "text"
}

// Kind returns the closed control variant for the spec.
func (s FieldSpec) Kind() Kind {
	return KindOf(s.TypeName())
}

// OptionValues splits the CSV options column, trimming entries and skipping
// empty ones.
func (s FieldSpec) OptionValues() []string {
	var out []string
	for _, raw := range strings.Split(s.Options, ",") {
		if value := strings.TrimSpace(raw); value != "" {
			out = append(out, value)
		}
	}
	return out
}

// Kind enumerates the controls a field spec can produce.
type Kind int

const (
	// KindInput is a label plus <input>; the spec type is the input type.
	KindInput Kind = iota
	KindSelect
	KindHeading
	KindLegal
	KindCheckbox
	KindTextArea
	KindSubmit
)

var kindNames = map[Kind]string{
	KindInput:    "input",
	KindSelect:   "select",
	KindHeading:  "heading",
	KindLegal:    "legal",
	KindCheckbox: "checkbox",
	KindTextArea: "text-area",
	KindSubmit:   "submit",
}

// String returns the sheet type name for the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// KindOf maps a sheet type name onto its kind. Unknown names are inputs.
func KindOf(typeName string) Kind {
	switch strings.ToLower(strings.TrimSpace(typeName)) {
	case "select":
		return KindSelect
	case "heading":
		return KindHeading
	case "legal":
		return KindLegal
	case "checkbox":
		return KindCheckbox
	case "text-area":
		return KindTextArea
	case "submit":
		return KindSubmit
	default:
		return KindInput
	}
}

// HasControl reports whether the kind renders a value-carrying control.
func (k Kind) HasControl() bool {
	switch k {
	case KindInput, KindSelect, KindCheckbox, KindTextArea:
		return true
	case KindHeading, KindLegal, KindSubmit:
		return false
	default:
		return false
	}
}
