package workflow

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/dicri/internal/model"
)

// CaseFields are the caller-supplied attributes of a case.
type CaseFields struct {
	CaseNumber   string    `json:"case_number" validate:"required,max=300"`
	Description  string    `json:"description" validate:"required,max=500"`
	Location     string    `json:"location" validate:"required,max=300"`
	IncidentDate time.Time `json:"incident_date" validate:"required"`
	OffenseType  string    `json:"offense_type" validate:"required,max=50"`
	Notes        string    `json:"notes" validate:"max=1000"`
	Priority     string    `json:"priority" validate:"required,max=100"`
}

// EvidenceFields are the caller-supplied attributes of an evidence item.
type EvidenceFields struct {
	Description    string    `json:"description" validate:"required,max=500"`
	Color          string    `json:"color" validate:"max=50"`
	Size           string    `json:"size" validate:"max=100"`
	Weight         string    `json:"weight" validate:"max=50"`
	Location       string    `json:"location" validate:"required,max=300"`
	Notes          string    `json:"notes" validate:"max=1000"`
	EvidenceNumber string    `json:"evidence_number" validate:"max=100"`
	Type           string    `json:"type" validate:"max=100"`
	CollectedAt    time.Time `json:"collected_at" validate:"required"`
	CustodyChain   string    `json:"custody_chain" validate:"max=100"`
}

// ItemDecision is a coordinator's verdict on one evidence item.
type ItemDecision struct {
	EvidenceID    int64  `json:"evidence_id"`
	Decision      string `json:"decision"`
	Justification string `json:"justification"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// validateFields runs the struct tags of v and converts failures into a
// ValidationError.
func validateFields(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating input: %w", err)
	}

	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

// checkDecisions validates a whole review before anything is applied.
func checkDecisions(decisions []ItemDecision) ([]model.ItemState, error) {
	ve := &ValidationError{}
	states := make([]model.ItemState, len(decisions))
	seen := make(map[int64]bool, len(decisions))

	for i, d := range decisions {
		field := fmt.Sprintf("decisions[%d]", i)
		state, ok := model.ParseDecision(d.Decision)
		switch {
		case d.EvidenceID <= 0:
			ve.Fields = append(ve.Fields, FieldError{Field: field, Message: "evidence id is required"})
		case seen[d.EvidenceID]:
			ve.Fields = append(ve.Fields, FieldError{Field: field, Message: "duplicate evidence id"})
		case !ok:
			ve.Fields = append(ve.Fields, FieldError{Field: field, Message: fmt.Sprintf("unknown decision %q", d.Decision)})
		case state == model.ItemRejected && strings.TrimSpace(d.Justification) == "":
			ve.Fields = append(ve.Fields, FieldError{Field: field, Message: "rejection requires a justification"})
		}
		seen[d.EvidenceID] = true
		states[i] = state
	}

	if len(ve.Fields) > 0 {
		return nil, ve
	}
	return states, nil
}
