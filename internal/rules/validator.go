package rules

import (
	"fmt"
	"strings"
	"time"

	"hospicrm-migrator/internal/domain"
	"hospicrm-migrator/internal/registry"
)

// Verdict is the terminal classification of a single validation pass.
type Verdict int

const (
	VerdictValid Verdict = iota
	VerdictRepairable
	VerdictRejected
)

func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictRepairable:
		return "repairable"
	case VerdictRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ReasonCode identifies one class of rule violation. The codes appear
// verbatim in the reconciliation report's rejection breakdown.
type ReasonCode string

const (
	// ReasonMissingRequired: required field blank with no safe default. Rejects.
	ReasonMissingRequired ReasonCode = "missing_required"
	// ReasonUnresolvableReference: required FK not present in the registry. Rejects.
	ReasonUnresolvableReference ReasonCode = "unresolvable_reference"
	// ReasonDanglingReference: nullable FK not present in the registry. Repairable.
	ReasonDanglingReference ReasonCode = "dangling_reference"
	// ReasonBlankDefaulted: required field blank but a documented default exists. Repairable.
	ReasonBlankDefaulted ReasonCode = "blank_defaulted"
	// ReasonEnumNotCanonical: enum value absent from the whitelist. Repairable.
	ReasonEnumNotCanonical ReasonCode = "enum_not_canonical"
	// ReasonValueOutOfRange: numeric value absent or outside the declared range. Repairable.
	ReasonValueOutOfRange ReasonCode = "value_out_of_range"
	// ReasonMalformedValue: nullable free-text field fails its declared format. Repairable.
	ReasonMalformedValue ReasonCode = "malformed_value"
	// ReasonConstraintViolation: the target store rejected the write despite
	// local validation (schema drift). Attached by the importer, not the validator.
	ReasonConstraintViolation ReasonCode = "constraint_violation"
)

// rejects reports whether the code escalates the record to Rejected.
// Rejected rules trump Repairable ones.
func (c ReasonCode) rejects() bool {
	return c == ReasonMissingRequired || c == ReasonUnresolvableReference || c == ReasonConstraintViolation
}

type Reason struct {
	Code   ReasonCode `json:"code"`
	Field  string     `json:"field"`
	Detail string     `json:"detail,omitempty"`
}

type ValidationResult struct {
	Verdict Verdict
	Reasons []Reason
}

// Validator applies the per-entity rule tables. It holds no state of its
// own; the registry is passed per call so isolated tests can validate a
// single entity type.
type Validator struct {
	normalizer *Normalizer
}

func NewValidator(normalizer *Normalizer) *Validator {
	return &Validator{normalizer: normalizer}
}

// Validate classifies the record. It never mutates it.
func (v *Validator) Validate(rec domain.Record, reg *registry.Registry) ValidationResult {
	er, ok := rulesByEntity[rec.EntityType()]
	if !ok {
		return ValidationResult{Verdict: VerdictRejected, Reasons: []Reason{
			{Code: ReasonMissingRequired, Field: "entity", Detail: fmt.Sprintf("no rules for entity type %q", rec.EntityType())},
		}}
	}

	var reasons []Reason

	for _, rule := range er.required {
		if strings.TrimSpace(rule.get(rec)) != "" {
			continue
		}
		if rule.set != nil {
			reasons = append(reasons, Reason{Code: ReasonBlankDefaulted, Field: rule.field,
				Detail: fmt.Sprintf("blank, default %q available", rule.def)})
		} else {
			reasons = append(reasons, Reason{Code: ReasonMissingRequired, Field: rule.field})
		}
	}

	for _, rule := range er.fks {
		ref := strings.TrimSpace(rule.get(rec))
		if ref == "" {
			// Absence of a required FK is caught by the required rules.
			continue
		}
		if reg.Contains(rule.ref, ref) {
			continue
		}
		if rule.nullable {
			reasons = append(reasons, Reason{Code: ReasonDanglingReference, Field: rule.field,
				Detail: fmt.Sprintf("%s %q not present in target", rule.ref, ref)})
		} else {
			reasons = append(reasons, Reason{Code: ReasonUnresolvableReference, Field: rule.field,
				Detail: fmt.Sprintf("%s %q not present in target", rule.ref, ref)})
		}
	}

	for _, rule := range er.enums {
		if val := rule.get(rec); !v.normalizer.IsCanonical(rule.field, val) {
			reasons = append(reasons, Reason{Code: ReasonEnumNotCanonical, Field: string(rule.field),
				Detail: fmt.Sprintf("value %q not in whitelist", val)})
		}
	}

	for _, rule := range er.formats {
		val := strings.TrimSpace(rule.get(rec))
		if val == "" {
			continue
		}
		if _, err := time.Parse(rule.layout, val); err != nil {
			reasons = append(reasons, Reason{Code: ReasonMalformedValue, Field: rule.field,
				Detail: fmt.Sprintf("%q does not match %s", val, rule.layout)})
		}
	}

	for _, rule := range er.ranges {
		val, present := rule.get(rec)
		if !present {
			reasons = append(reasons, Reason{Code: ReasonValueOutOfRange, Field: rule.field, Detail: "value absent"})
			continue
		}
		if val < rule.min || val > rule.max {
			reasons = append(reasons, Reason{Code: ReasonValueOutOfRange, Field: rule.field,
				Detail: fmt.Sprintf("%v outside [%v, %v]", val, rule.min, rule.max)})
		}
	}

	return ValidationResult{Verdict: verdictFor(reasons), Reasons: reasons}
}

func verdictFor(reasons []Reason) Verdict {
	verdict := VerdictValid
	for _, r := range reasons {
		if r.Code.rejects() {
			return VerdictRejected
		}
		verdict = VerdictRepairable
	}
	return verdict
}
