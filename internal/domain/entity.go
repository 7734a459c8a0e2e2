package domain

// EntityType identifies one of the migrated hospital entity types.
// The string value doubles as the snapshot collection name and the
// target table name.
type EntityType string

const (
	EntityDepartment  EntityType = "departments"
	EntityDoctor      EntityType = "doctors"
	EntityPatient     EntityType = "patients"
	EntityBed         EntityType = "beds"
	EntityTransaction EntityType = "transactions"
)

// ImportOrder is the fixed dependency order of a migration run:
// lookup tables first, then the entity types their dependents reference.
// Beds and transactions both reference patients and come last.
var ImportOrder = []EntityType{
	EntityDepartment,
	EntityDoctor,
	EntityPatient,
	EntityBed,
	EntityTransaction,
}

// Record is the common surface of all migrated records. Key returns the
// source-assigned identifier that is stable across re-runs (the primary
// key for most entity types, the bed number for beds).
type Record interface {
	EntityType() EntityType
	Key() string
	// Clone returns a deep copy. Repair operates on clones so the loaded
	// snapshot stays untouched for the whole run.
	Clone() Record
}
