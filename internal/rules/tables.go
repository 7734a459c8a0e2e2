package rules

import (
	"hospicrm-migrator/internal/domain"
)

// The rule tables below are the single place the per-entity migration
// constraints live. Validator and RepairEngine both walk them, so a rule
// added here is validated and repaired consistently.

// requiredRule: a field that must be non-blank. set is nil when there is
// no safe default, in which case a blank value rejects the record.
type requiredRule struct {
	field string
	def   string
	get   func(domain.Record) string
	set   func(domain.Record, string)
}

// fkRule: a reference that must resolve through the registry. Nullable
// references are nullified on repair; required ones reject the record.
type fkRule struct {
	field    string
	ref      domain.EntityType
	nullable bool
	get      func(domain.Record) string
	clear    func(domain.Record)
}

// enumRule: a field constrained to the whitelist for its EnumField.
type enumRule struct {
	field EnumField
	get   func(domain.Record) string
	set   func(domain.Record, string)
}

// rangeRule: a numeric field with a declared valid range. An absent value
// is substituted with def; an out-of-range one is clamped.
type rangeRule struct {
	field    string
	min, max float64
	def      float64
	get      func(domain.Record) (float64, bool)
	set      func(domain.Record, float64)
}

// formatRule: a free-text field that must parse under layout when present.
// Only nullable fields carry one; a value the target column type would
// reject is nullified on repair rather than passed through to the store.
type formatRule struct {
	field  string
	layout string
	get    func(domain.Record) string
	clear  func(domain.Record)
}

type entityRules struct {
	required []requiredRule
	fks      []fkRule
	enums    []enumRule
	ranges   []rangeRule
	formats  []formatRule
}

const (
	// DefaultDoctorDepartment is substituted for a blank doctor department.
	DefaultDoctorDepartment = "General Medicine"
	// DefaultBedDepartment is substituted for a blank bed department.
	DefaultBedDepartment = "General"

	// MaxPatientAge is the upper bound of the valid age range.
	MaxPatientAge = 120
	// maxMoney is a schema-level sanity cap on monetary columns
	// (NUMERIC(12,2) in the target).
	maxMoney = 9999999999.99

	// DateLayout is the one date format accepted by the DATE columns.
	DateLayout = "2006-01-02"
)

var rulesByEntity = map[domain.EntityType]*entityRules{
	domain.EntityDepartment: {
		required: []requiredRule{
			{
				field: "id",
				get:   func(r domain.Record) string { return r.(*domain.DepartmentRecord).ID },
			},
			{
				field: "name",
				get:   func(r domain.Record) string { return r.(*domain.DepartmentRecord).Name },
			},
		},
	},

	domain.EntityDoctor: {
		required: []requiredRule{
			{
				field: "id",
				get:   func(r domain.Record) string { return r.(*domain.DoctorRecord).ID },
			},
			{
				field: "full_name",
				get:   func(r domain.Record) string { return r.(*domain.DoctorRecord).FullName },
			},
			{
				field: "department",
				def:   DefaultDoctorDepartment,
				get:   func(r domain.Record) string { return r.(*domain.DoctorRecord).Department },
				set:   func(r domain.Record, v string) { r.(*domain.DoctorRecord).Department = v },
			},
		},
		ranges: []rangeRule{
			{
				field: "fee",
				min:   0,
				max:   maxMoney,
				def:   0,
				get: func(r domain.Record) (float64, bool) {
					d := r.(*domain.DoctorRecord)
					if d.Fee == nil {
						return 0, false
					}
					return *d.Fee, true
				},
				set: func(r domain.Record, v float64) { r.(*domain.DoctorRecord).Fee = &v },
			},
		},
	},

	domain.EntityPatient: {
		required: []requiredRule{
			{
				field: "id",
				get:   func(r domain.Record) string { return r.(*domain.PatientRecord).ID },
			},
			{
				field: "full_name",
				get:   func(r domain.Record) string { return r.(*domain.PatientRecord).FullName },
			},
		},
		enums: []enumRule{
			{
				field: EnumGender,
				get:   func(r domain.Record) string { return r.(*domain.PatientRecord).Gender },
				set:   func(r domain.Record, v string) { r.(*domain.PatientRecord).Gender = v },
			},
		},
		ranges: []rangeRule{
			{
				field: "age",
				min:   0,
				max:   MaxPatientAge,
				def:   0, // unknown age; 0 is the documented "not recorded" value
				get: func(r domain.Record) (float64, bool) {
					p := r.(*domain.PatientRecord)
					if p.Age == nil {
						return 0, false
					}
					return float64(*p.Age), true
				},
				set: func(r domain.Record, v float64) {
					age := int(v)
					r.(*domain.PatientRecord).Age = &age
				},
			},
		},
	},

	domain.EntityBed: {
		required: []requiredRule{
			{
				field: "bed_number",
				get:   func(r domain.Record) string { return r.(*domain.BedRecord).BedNumber },
			},
			{
				field: "department",
				def:   DefaultBedDepartment,
				get:   func(r domain.Record) string { return r.(*domain.BedRecord).Department },
				set:   func(r domain.Record, v string) { r.(*domain.BedRecord).Department = v },
			},
		},
		fks: []fkRule{
			{
				field:    "patient_id",
				ref:      domain.EntityPatient,
				nullable: true,
				get: func(r domain.Record) string {
					b := r.(*domain.BedRecord)
					if b.PatientID == nil {
						return ""
					}
					return *b.PatientID
				},
				clear: func(r domain.Record) { r.(*domain.BedRecord).PatientID = nil },
			},
		},
		enums: []enumRule{
			{
				field: EnumRoomType,
				get:   func(r domain.Record) string { return r.(*domain.BedRecord).RoomType },
				set:   func(r domain.Record, v string) { r.(*domain.BedRecord).RoomType = v },
			},
			{
				field: EnumBedStatus,
				get:   func(r domain.Record) string { return r.(*domain.BedRecord).Status },
				set:   func(r domain.Record, v string) { r.(*domain.BedRecord).Status = v },
			},
		},
		ranges: []rangeRule{
			{
				field: "daily_rate",
				min:   0,
				max:   maxMoney,
				def:   0,
				get: func(r domain.Record) (float64, bool) {
					b := r.(*domain.BedRecord)
					if b.DailyRate == nil {
						return 0, false
					}
					return *b.DailyRate, true
				},
				set: func(r domain.Record, v float64) { r.(*domain.BedRecord).DailyRate = &v },
			},
		},
	},

	domain.EntityTransaction: {
		required: []requiredRule{
			{
				field: "id",
				get:   func(r domain.Record) string { return r.(*domain.TransactionRecord).ID },
			},
			{
				// No safe default: a transaction without a patient is rejected.
				field: "patient_id",
				get:   func(r domain.Record) string { return r.(*domain.TransactionRecord).PatientID },
			},
		},
		fks: []fkRule{
			{
				field: "patient_id",
				ref:   domain.EntityPatient,
				get:   func(r domain.Record) string { return r.(*domain.TransactionRecord).PatientID },
			},
			{
				field:    "doctor_id",
				ref:      domain.EntityDoctor,
				nullable: true,
				get: func(r domain.Record) string {
					t := r.(*domain.TransactionRecord)
					if t.DoctorID == nil {
						return ""
					}
					return *t.DoctorID
				},
				clear: func(r domain.Record) { r.(*domain.TransactionRecord).DoctorID = nil },
			},
		},
		enums: []enumRule{
			{
				field: EnumTransactionType,
				get:   func(r domain.Record) string { return r.(*domain.TransactionRecord).TransactionType },
				set:   func(r domain.Record, v string) { r.(*domain.TransactionRecord).TransactionType = v },
			},
			{
				field: EnumPaymentMode,
				get:   func(r domain.Record) string { return r.(*domain.TransactionRecord).PaymentMode },
				set:   func(r domain.Record, v string) { r.(*domain.TransactionRecord).PaymentMode = v },
			},
		},
		ranges: []rangeRule{
			{
				field: "amount",
				min:   0,
				max:   maxMoney,
				def:   0,
				get: func(r domain.Record) (float64, bool) {
					t := r.(*domain.TransactionRecord)
					if t.Amount == nil {
						return 0, false
					}
					return *t.Amount, true
				},
				set: func(r domain.Record, v float64) { r.(*domain.TransactionRecord).Amount = &v },
			},
		},
		formats: []formatRule{
			{
				field:  "transaction_date",
				layout: DateLayout,
				get: func(r domain.Record) string {
					t := r.(*domain.TransactionRecord)
					if t.TransactionDate == nil {
						return ""
					}
					return *t.TransactionDate
				},
				clear: func(r domain.Record) { r.(*domain.TransactionRecord).TransactionDate = nil },
			},
		},
	},
}

func (er *entityRules) findRequired(field string) *requiredRule {
	for i := range er.required {
		if er.required[i].field == field {
			return &er.required[i]
		}
	}
	return nil
}

func (er *entityRules) findFK(field string) *fkRule {
	for i := range er.fks {
		if er.fks[i].field == field {
			return &er.fks[i]
		}
	}
	return nil
}

func (er *entityRules) findEnum(field string) *enumRule {
	for i := range er.enums {
		if string(er.enums[i].field) == field {
			return &er.enums[i]
		}
	}
	return nil
}

func (er *entityRules) findFormat(field string) *formatRule {
	for i := range er.formats {
		if er.formats[i].field == field {
			return &er.formats[i]
		}
	}
	return nil
}

func (er *entityRules) findRange(field string) *rangeRule {
	for i := range er.ranges {
		if er.ranges[i].field == field {
			return &er.ranges[i]
		}
	}
	return nil
}
