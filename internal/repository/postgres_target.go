package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"hospicrm-migrator/internal/domain"
)

// PostgresTargetStore is the production TargetStore over the hospital-CRM
// Postgres database.
type PostgresTargetStore struct {
	db *sql.DB
}

func NewPostgresTargetStore(db *sql.DB) *PostgresTargetStore {
	return &PostgresTargetStore{db: db}
}

var _ TargetStore = (*PostgresTargetStore)(nil)

// idColumns maps entity type to the primary identifier column. The entity
// type string is the table name.
var idColumns = map[domain.EntityType]string{
	domain.EntityDepartment:  "department_id",
	domain.EntityDoctor:      "doctor_id",
	domain.EntityPatient:     "patient_id",
	domain.EntityBed:         "bed_number",
	domain.EntityTransaction: "transaction_id",
}

func (s *PostgresTargetStore) Exists(ctx context.Context, entity domain.EntityType, id string) (bool, error) {
	col, ok := idColumns[entity]
	if !ok {
		return false, fmt.Errorf("unknown entity type %q", entity)
	}

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`, entity, col)
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, classify("exists", err)
	}
	return exists, nil
}

func (s *PostgresTargetStore) ListIDs(ctx context.Context, entity domain.EntityType) ([]string, error) {
	col, ok := idColumns[entity]
	if !ok {
		return nil, fmt.Errorf("unknown entity type %q", entity)
	}

	query := fmt.Sprintf(`SELECT %s::text FROM %s`, col, entity)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("list ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, classify("list ids", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list ids", err)
	}
	return ids, nil
}

// Insert uses ON CONFLICT DO NOTHING on the primary identifier: the
// registry makes re-inserts unreachable in normal operation, the conflict
// clause keeps a concurrent or resumed run from duplicating rows.
func (s *PostgresTargetStore) Insert(ctx context.Context, rec domain.Record) error {
	var err error
	switch r := rec.(type) {
	case *domain.DepartmentRecord:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO departments (department_id, department_name)
			VALUES ($1, $2)
			ON CONFLICT (department_id) DO NOTHING`,
			r.ID, r.Name)

	case *domain.DoctorRecord:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO doctors (doctor_id, full_name, department, specialization, fee, phone, email, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (doctor_id) DO NOTHING`,
			r.ID, r.FullName, r.Department, r.Specialization, nullFloat(r.Fee), r.Phone, r.Email, r.Active)

	case *domain.PatientRecord:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO patients (patient_id, patient_code, full_name, age, gender, phone, address, medical_history, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (patient_id) DO NOTHING`,
			r.ID, r.PatientCode, r.FullName, nullInt(r.Age), r.Gender, r.Phone, r.Address, r.MedicalHistory, r.Active)

	case *domain.BedRecord:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO beds (bed_number, department, room_type, status, patient_id, daily_rate)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (bed_number) DO NOTHING`,
			r.BedNumber, r.Department, r.RoomType, r.Status, nullStr(r.PatientID), nullFloat(r.DailyRate))

	case *domain.TransactionRecord:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO transactions (transaction_id, patient_id, doctor_id, transaction_type, payment_mode, amount, department, transaction_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (transaction_id) DO NOTHING`,
			r.ID, r.PatientID, nullStr(r.DoctorID), r.TransactionType, r.PaymentMode, nullFloat(r.Amount), r.Department, nullStr(r.TransactionDate))

	default:
		return fmt.Errorf("unknown record type %T", rec)
	}

	if err != nil {
		return classify("insert", err)
	}
	return nil
}

// classify splits driver errors into the per-record and fatal classes.
// Postgres class 23 (integrity constraint violation) and class 22 (data
// exception, e.g. a value the column type cannot hold) both mean this one
// row is bad; everything else is treated as the store being unusable.
func classify(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23":
			return fmt.Errorf("%w: %s: %v", ErrConstraintViolation, op, err)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrFatalStore, op, err)
}

func nullStr(v *string) sql.NullString {
	if v == nil || *v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
