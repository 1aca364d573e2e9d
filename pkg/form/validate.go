package form

import (
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-blocks/pkg/dom"
)

var (
	validatorInstance *validator.Validate
	validatorOnce     sync.Once
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInstance = validator.New()
	})
	return validatorInstance
}

// formatTags maps input types onto the format checks applied to non-empty
// values.
var formatTags = map[string]string{
	"email":  "email",
	"url":    "url",
	"number": "numeric",
}

// Validate checks the required and format constraints of the visible
// controls. Unlike a browser's checkValidity, controls inside wrappers hidden
// by a visibility rule are skipped, so a rule can retire a required field.
func (f *Form) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validate()
}

func (f *Form) validate() error {
	v := getValidator()
	var failures []FieldError

	for _, fld := range f.fields {
		if !fld.kind.HasControl() || dom.HasClass(fld.wrapper, hiddenClass) {
			continue
		}
		id := fld.spec.Field

		if fld.kind == KindCheckbox {
			if fld.spec.Required() && v.Var(dom.HasAttr(fld.control, "checked"), "required") != nil {
				failures = append(failures, FieldError{ID: id, Tag: "required"})
			}
			continue
		}

		value := controlValue(fld)
		if fld.spec.Required() && v.Var(value, "required") != nil {
			failures = append(failures, FieldError{ID: id, Tag: "required"})
			continue
		}
		if fld.kind != KindInput {
			continue
		}
		if tag, ok := formatTags[fld.spec.TypeName()]; ok {
			if v.Var(value, "omitempty,"+tag) != nil {
				failures = append(failures, FieldError{ID: id, Tag: tag})
			}
		}
	}

	if len(failures) > 0 {
		return &ValidationError{Fields: failures}
	}
	return nil
}
