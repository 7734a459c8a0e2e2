// Package rules holds the declarative per-entity migration rules: enum
// whitelists, required fields and safe defaults, foreign-key specs and
// numeric ranges, plus the validator and repair engine that apply them.
package rules

import (
	"strings"
)

// EnumField names an enum-valued column. The value matches the snapshot
// field name and the target column name.
type EnumField string

const (
	EnumPaymentMode     EnumField = "payment_mode"
	EnumTransactionType EnumField = "transaction_type"
	EnumRoomType        EnumField = "room_type"
	EnumBedStatus       EnumField = "status"
	EnumGender          EnumField = "gender"
)

// enumSpec is the whitelist for one enum field. Unmapped input falls back
// to def; that substitution is deliberate lossy repair and is always
// surfaced to the caller so the run report can count it.
type enumSpec struct {
	canonical []string
	aliases   map[string]string
	def       string
}

var enumSpecs = map[EnumField]enumSpec{
	EnumPaymentMode: {
		canonical: []string{"CASH", "ONLINE", "CARD", "UPI", "INSURANCE", "ADJUSTMENT"},
		aliases: map[string]string{
			"CREDIT_CARD": "CARD",
			"DEBIT_CARD":  "CARD",
			"NET_BANKING": "ONLINE",
			"NETBANKING":  "ONLINE",
			"GPAY":        "UPI",
			"PAYTM":       "UPI",
		},
		def: "CASH",
	},
	EnumTransactionType: {
		canonical: []string{
			"ENTRY_FEE", "CONSULTATION", "SERVICE", "ADMISSION", "MEDICINE",
			"DISCOUNT", "REFUND", "PROCEDURE", "LAB_TEST", "IMAGING",
		},
		aliases: map[string]string{
			"ENTRY":    "ENTRY_FEE",
			"OPD":      "CONSULTATION",
			"LABTEST":  "LAB_TEST",
			"LAB":      "LAB_TEST",
			"XRAY":     "IMAGING",
			"PHARMACY": "MEDICINE",
		},
		def: "CONSULTATION",
	},
	EnumRoomType: {
		canonical: []string{"GENERAL", "SEMI_PRIVATE", "PRIVATE", "ICU", "EMERGENCY"},
		aliases: map[string]string{
			"WARD":   "GENERAL",
			"DELUXE": "PRIVATE",
			"ER":     "EMERGENCY",
		},
		def: "GENERAL",
	},
	EnumBedStatus: {
		canonical: []string{"AVAILABLE", "OCCUPIED", "MAINTENANCE", "RESERVED"},
		aliases: map[string]string{
			"VACANT":   "AVAILABLE",
			"FREE":     "AVAILABLE",
			"BOOKED":   "RESERVED",
			"CLEANING": "MAINTENANCE",
		},
		def: "AVAILABLE",
	},
	EnumGender: {
		canonical: []string{"MALE", "FEMALE", "OTHER"},
		aliases: map[string]string{
			"M": "MALE",
			"F": "FEMALE",
		},
		def: "OTHER",
	},
}

// Whitelist returns the canonical values for the field.
func Whitelist(field EnumField) []string {
	return enumSpecs[field].canonical
}

// DefaultFor returns the documented fallback value for the field.
func DefaultFor(field EnumField) string {
	return enumSpecs[field].def
}

// Normalizer canonicalizes enum-valued fields case-insensitively against
// the whitelist for the field.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize maps raw input to a whitelist value. coerced is true whenever
// the returned value differs from the raw input, including the fallback to
// the field default for unmapped input.
func (n *Normalizer) Normalize(field EnumField, raw string) (canonical string, coerced bool) {
	spec, ok := enumSpecs[field]
	if !ok {
		return raw, false
	}

	key := foldEnum(raw)
	for _, v := range spec.canonical {
		if key == v {
			return v, v != raw
		}
	}
	if mapped, ok := spec.aliases[key]; ok {
		return mapped, true
	}
	return spec.def, true
}

// IsCanonical reports whether the value is already a whitelist value as-is.
func (n *Normalizer) IsCanonical(field EnumField, value string) bool {
	for _, v := range enumSpecs[field].canonical {
		if value == v {
			return true
		}
	}
	return false
}

// foldEnum upper-cases and collapses separators so "Semi Private",
// "semi-private" and "SEMI_PRIVATE" compare equal.
func foldEnum(raw string) string {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, " ", "_")
	return key
}
