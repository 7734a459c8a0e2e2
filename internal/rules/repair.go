package rules

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"hospicrm-migrator/internal/domain"
)

// RepairKind labels one applied transformation in the run report.
type RepairKind string

const (
	RepairEnumCoerced        RepairKind = "enum_coerced"
	RepairRangeClamped       RepairKind = "range_clamped"
	RepairDefaultApplied     RepairKind = "default_applied"
	RepairReferenceNullified RepairKind = "reference_nullified"
	RepairValueNullified     RepairKind = "value_nullified"
)

// AppliedRepair records a single field transformation for the audit trail.
type AppliedRepair struct {
	Kind  RepairKind `json:"kind"`
	Field string     `json:"field"`
	From  string     `json:"from"`
	To    string     `json:"to"`
}

// RepairEngine applies exactly the transformations implied by the
// Repairable reasons from a validation pass. It is deterministic, touches
// no other fields, and is a fixed point: repairing an already-repaired
// record applies nothing.
type RepairEngine struct {
	normalizer *Normalizer
}

func NewRepairEngine(normalizer *Normalizer) *RepairEngine {
	return &RepairEngine{normalizer: normalizer}
}

// Repair returns a repaired clone of the record; the input record is never
// mutated. Reasons that reject (missing required field, unresolvable
// required reference) are not repairable and are skipped.
func (e *RepairEngine) Repair(rec domain.Record, reasons []Reason) (domain.Record, []AppliedRepair) {
	er, ok := rulesByEntity[rec.EntityType()]
	if !ok {
		return rec, nil
	}

	repaired := rec.Clone()
	var applied []AppliedRepair

	for _, reason := range reasons {
		switch reason.Code {
		case ReasonBlankDefaulted:
			rule := er.findRequired(reason.Field)
			if rule == nil || rule.set == nil {
				continue
			}
			from := rule.get(repaired)
			if strings.TrimSpace(from) != "" {
				continue
			}
			rule.set(repaired, rule.def)
			applied = append(applied, AppliedRepair{Kind: RepairDefaultApplied, Field: rule.field, From: from, To: rule.def})

		case ReasonDanglingReference:
			rule := er.findFK(reason.Field)
			if rule == nil || rule.clear == nil {
				continue
			}
			from := rule.get(repaired)
			if from == "" {
				continue
			}
			rule.clear(repaired)
			applied = append(applied, AppliedRepair{Kind: RepairReferenceNullified, Field: rule.field, From: from, To: ""})

		case ReasonEnumNotCanonical:
			rule := er.findEnum(reason.Field)
			if rule == nil {
				continue
			}
			from := rule.get(repaired)
			canonical, coerced := e.normalizer.Normalize(rule.field, from)
			if !coerced {
				continue
			}
			rule.set(repaired, canonical)
			applied = append(applied, AppliedRepair{Kind: RepairEnumCoerced, Field: string(rule.field), From: from, To: canonical})

		case ReasonMalformedValue:
			rule := er.findFormat(reason.Field)
			if rule == nil || rule.clear == nil {
				continue
			}
			from := strings.TrimSpace(rule.get(repaired))
			if from == "" {
				continue
			}
			if _, err := time.Parse(rule.layout, from); err == nil {
				continue
			}
			rule.clear(repaired)
			applied = append(applied, AppliedRepair{Kind: RepairValueNullified, Field: rule.field, From: from, To: ""})

		case ReasonValueOutOfRange:
			rule := er.findRange(reason.Field)
			if rule == nil {
				continue
			}
			val, present := rule.get(repaired)
			if !present {
				rule.set(repaired, rule.def)
				applied = append(applied, AppliedRepair{Kind: RepairDefaultApplied, Field: rule.field, From: "",
					To: formatFloat(rule.def)})
				continue
			}
			clamped := val
			if clamped < rule.min {
				clamped = rule.min
			}
			if clamped > rule.max {
				clamped = rule.max
			}
			if clamped == val {
				continue
			}
			rule.set(repaired, clamped)
			applied = append(applied, AppliedRepair{Kind: RepairRangeClamped, Field: rule.field,
				From: formatFloat(val), To: formatFloat(clamped)})
		}
	}

	return repaired, applied
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Describe renders an applied repair for per-record debug logging.
func (a AppliedRepair) Describe() string {
	return fmt.Sprintf("%s(%s: %q -> %q)", a.Kind, a.Field, a.From, a.To)
}
