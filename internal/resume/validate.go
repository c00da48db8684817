// internal/resume/validate.go

// Package resume validates parsed resume documents at the intake boundary.
// A resume that fails here never starts a verification run.
package resume

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"refcheck/internal/common/errors"
	"refcheck/internal/models"
)

const resumeSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["employment"],
	"properties": {
		"employment": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["employer", "title", "startDate"],
				"properties": {
					"employer": {"type": "string", "minLength": 1},
					"title": {"type": "string", "minLength": 1},
					"startDate": {"type": "string", "pattern": "^[0-9]{4}-(0[1-9]|1[0-2])$"},
					"endDate": {"type": "string", "pattern": "^([0-9]{4}-(0[1-9]|1[0-2]))?$"},
					"description": {"type": "string"}
				}
			}
		},
		"education": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["institution"],
				"properties": {
					"institution": {"type": "string", "minLength": 1},
					"degree": {"type": "string"},
					"field": {"type": "string"},
					"year": {"type": "integer"}
				}
			}
		},
		"skills": {
			"type": "array",
			"items": {"type": "string"}
		}
	}
}`

// Validator checks parsed resumes against the intake schema plus the
// semantic rules the schema cannot express (date ordering).
type Validator struct {
	schema *gojsonschema.Schema
}

func NewValidator() (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(resumeSchema))
	if err != nil {
		return nil, fmt.Errorf("compile resume schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate returns nil when the resume is acceptable. Otherwise it returns
// a StandardError whose details list every violation found, not just the
// first one.
func (v *Validator) Validate(parsed *models.ParsedResume) error {
	if parsed == nil || len(parsed.Employment) == 0 {
		return errors.NewResumeEmptyError()
	}

	doc, err := json.Marshal(parsed)
	if err != nil {
		return errors.NewResumeValidationFailedError(err.Error())
	}

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return errors.NewResumeValidationFailedError(err.Error())
	}

	var violations []string
	if !result.Valid() {
		for _, desc := range result.Errors() {
			violations = append(violations, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
	}
	violations = append(violations, v.checkDates(parsed)...)

	if len(violations) > 0 {
		return errors.NewResumeValidationFailedError(strings.Join(violations, "; "))
	}
	return nil
}

func (v *Validator) checkDates(parsed *models.ParsedResume) []string {
	var violations []string
	for i, entry := range parsed.Employment {
		start, err := models.ParseMonth(entry.StartDate)
		if err != nil {
			violations = append(violations, fmt.Sprintf("employment.%d.startDate: %s", i, err.Error()))
			continue
		}
		if entry.EndDate == "" {
			continue
		}
		end, err := models.ParseMonth(entry.EndDate)
		if err != nil {
			violations = append(violations, fmt.Sprintf("employment.%d.endDate: %s", i, err.Error()))
			continue
		}
		if end.Before(start) {
			violations = append(violations, fmt.Sprintf("employment.%d: endDate precedes startDate", i))
		}
	}
	return violations
}
