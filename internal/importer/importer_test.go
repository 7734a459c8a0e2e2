package importer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hospicrm-migrator/internal/domain"
	"hospicrm-migrator/internal/registry"
	"hospicrm-migrator/internal/repository"
	"hospicrm-migrator/internal/rules"
	"hospicrm-migrator/internal/snapshot"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func sptr(v string) *string   { return &v }

func patient(id, name string, age int) *domain.PatientRecord {
	return &domain.PatientRecord{ID: id, FullName: name, Age: iptr(age), Gender: "MALE"}
}

func transaction(id, patientID string) *domain.TransactionRecord {
	return &domain.TransactionRecord{
		ID:              id,
		PatientID:       patientID,
		TransactionType: "CONSULTATION",
		PaymentMode:     "CASH",
		Amount:          fptr(300),
	}
}

func TestRun_UnknownPatientRejected(t *testing.T) {
	// 3 patients, 2 transactions: one referencing P2, one referencing the
	// unknown P9. The P9 transaction must be rejected, never imported with
	// a nulled patient.
	snap := &snapshot.Snapshot{
		Source:   "test",
		Patients: []*domain.PatientRecord{patient("P1", "A", 30), patient("P2", "B", 40), patient("P3", "C", 50)},
		Transactions: []*domain.TransactionRecord{
			transaction("T1", "P2"),
			transaction("T2", "P9"),
		},
	}

	store := repository.NewMemoryTargetStore()
	imp := New(store, registry.New(), zap.NewNop())
	rep, err := imp.Run(context.Background(), snap)
	require.NoError(t, err)

	patients := rep.Entity(domain.EntityPatient)
	require.NotNil(t, patients)
	assert.Equal(t, 3, patients.NewlyImported)
	assert.True(t, patients.Complete)

	txs := rep.Entity(domain.EntityTransaction)
	require.NotNil(t, txs)
	assert.Equal(t, 2, txs.SourceCount)
	assert.Equal(t, 1, txs.NewlyImported)
	assert.Equal(t, 1, txs.Rejected)
	assert.Equal(t, 1, txs.RejectionReasons[string(rules.ReasonUnresolvableReference)])
	assert.False(t, txs.Complete)
	assert.False(t, rep.OK)

	_, found := store.Get(domain.EntityTransaction, "T2")
	assert.False(t, found, "rejected transaction must not reach the target")
}

func TestRun_ForwardReference(t *testing.T) {
	// A transaction referencing a patient that appears LAST in the patient
	// collection still imports: patients are fully imported before
	// transactions begin.
	snap := &snapshot.Snapshot{
		Source:       "test",
		Patients:     []*domain.PatientRecord{patient("P1", "A", 30), patient("P2", "B", 40), patient("P3", "C", 50)},
		Transactions: []*domain.TransactionRecord{transaction("T1", "P3")},
	}

	store := repository.NewMemoryTargetStore()
	imp := New(store, registry.New(), zap.NewNop())
	rep, err := imp.Run(context.Background(), snap)
	require.NoError(t, err)
	require.True(t, rep.OK)
	assert.Equal(t, 1, rep.Entity(domain.EntityTransaction).NewlyImported)
}

func TestRun_Idempotence(t *testing.T) {
	snap := &snapshot.Snapshot{
		Source:      "test",
		Departments: []*domain.DepartmentRecord{{ID: "DEP1", Name: "Cardiology"}},
		Doctors:     []*domain.DoctorRecord{{ID: "D1", FullName: "Dr. Rao", Department: "Cardiology", Fee: fptr(500)}},
		Patients:    []*domain.PatientRecord{patient("P1", "A", 30), patient("P2", "B", 40)},
		Beds: []*domain.BedRecord{{
			BedNumber: "B-101", Department: "General", RoomType: "GENERAL",
			Status: "Occupied", PatientID: sptr("P1"), DailyRate: fptr(1200),
		}},
		Transactions: []*domain.TransactionRecord{transaction("T1", "P1")},
	}

	store := repository.NewMemoryTargetStore()

	_, err := New(store, registry.New(), zap.NewNop()).Run(context.Background(), snap)
	require.NoError(t, err)

	// Second run: fresh registry (as a fresh process would have), same
	// target. Everything must be skipped-existing, nothing duplicated.
	rep2, err := New(store, registry.New(), zap.NewNop()).Run(context.Background(), snap)
	require.NoError(t, err)
	require.True(t, rep2.OK)

	for _, entity := range domain.ImportOrder {
		er := rep2.Entity(entity)
		require.NotNil(t, er)
		assert.Zero(t, er.NewlyImported, "entity %s", entity)
		assert.Equal(t, er.SourceCount, er.AlreadyPresent, "entity %s", entity)
		assert.True(t, er.Complete, "entity %s", entity)
		assert.Equal(t, er.SourceCount, store.Count(entity), "entity %s must have no duplicate rows", entity)
	}
}

func TestRun_BlankDoctorDepartmentRepaired(t *testing.T) {
	snap := &snapshot.Snapshot{
		Source:  "test",
		Doctors: []*domain.DoctorRecord{{ID: "D1", FullName: "Dr. Rao", Department: "", Fee: fptr(500)}},
	}

	store := repository.NewMemoryTargetStore()
	imp := New(store, registry.New(), zap.NewNop())
	rep, err := imp.Run(context.Background(), snap)
	require.NoError(t, err)
	require.True(t, rep.OK)

	er := rep.Entity(domain.EntityDoctor)
	assert.Equal(t, 1, er.NewlyImported)
	assert.Equal(t, 1, er.RepairedAndImported)
	assert.Equal(t, 1, er.RepairsApplied[string(rules.RepairDefaultApplied)])

	got, ok := store.Get(domain.EntityDoctor, "D1")
	require.True(t, ok)
	assert.Equal(t, rules.DefaultDoctorDepartment, got.(*domain.DoctorRecord).Department)
}

func TestRun_WrongCaseBedStatusRepaired(t *testing.T) {
	snap := &snapshot.Snapshot{
		Source: "test",
		Beds: []*domain.BedRecord{{
			BedNumber: "B-101", Department: "General", RoomType: "GENERAL",
			Status: "Occupied", DailyRate: fptr(1200),
		}},
	}

	store := repository.NewMemoryTargetStore()
	imp := New(store, registry.New(), zap.NewNop())
	rep, err := imp.Run(context.Background(), snap)
	require.NoError(t, err)
	require.True(t, rep.OK)

	er := rep.Entity(domain.EntityBed)
	assert.Equal(t, 1, er.RepairedAndImported)
	assert.Equal(t, 1, er.RepairsApplied[string(rules.RepairEnumCoerced)])

	got, ok := store.Get(domain.EntityBed, "B-101")
	require.True(t, ok)
	assert.Equal(t, "OCCUPIED", got.(*domain.BedRecord).Status)
}

func TestRun_BedWithUnknownOccupantImportedVacant(t *testing.T) {
	snap := &snapshot.Snapshot{
		Source: "test",
		Beds: []*domain.BedRecord{{
			BedNumber: "B-102", Department: "General", RoomType: "GENERAL",
			Status: "AVAILABLE", PatientID: sptr("P404"), DailyRate: fptr(800),
		}},
	}

	store := repository.NewMemoryTargetStore()
	imp := New(store, registry.New(), zap.NewNop())
	rep, err := imp.Run(context.Background(), snap)
	require.NoError(t, err)
	require.True(t, rep.OK)

	er := rep.Entity(domain.EntityBed)
	assert.Equal(t, 1, er.RepairsApplied[string(rules.RepairReferenceNullified)])

	got, ok := store.Get(domain.EntityBed, "B-102")
	require.True(t, ok)
	assert.Nil(t, got.(*domain.BedRecord).PatientID)
}

func TestRun_EnumAndRangeClosure(t *testing.T) {
	// Every imported record carries only whitelist enum values and
	// in-range numerics, whatever the source looked like.
	snap := &snapshot.Snapshot{
		Source: "test",
		Patients: []*domain.PatientRecord{
			{ID: "P1", FullName: "A", Age: iptr(250), Gender: "f"},
			{ID: "P2", FullName: "B", Age: nil, Gender: "unknown-gender"},
		},
		Transactions: []*domain.TransactionRecord{
			{ID: "T1", PatientID: "P1", TransactionType: "xray", PaymentMode: "gpay", Amount: fptr(-10)},
		},
	}

	store := repository.NewMemoryTargetStore()
	imp := New(store, registry.New(), zap.NewNop())
	rep, err := imp.Run(context.Background(), snap)
	require.NoError(t, err)
	require.True(t, rep.OK)

	n := rules.NewNormalizer()
	for _, id := range []string{"P1", "P2"} {
		got, ok := store.Get(domain.EntityPatient, id)
		require.True(t, ok)
		p := got.(*domain.PatientRecord)
		assert.True(t, n.IsCanonical(rules.EnumGender, p.Gender))
		require.NotNil(t, p.Age)
		assert.GreaterOrEqual(t, *p.Age, 0)
		assert.LessOrEqual(t, *p.Age, rules.MaxPatientAge)
	}

	got, ok := store.Get(domain.EntityTransaction, "T1")
	require.True(t, ok)
	tx := got.(*domain.TransactionRecord)
	assert.True(t, n.IsCanonical(rules.EnumTransactionType, tx.TransactionType))
	assert.True(t, n.IsCanonical(rules.EnumPaymentMode, tx.PaymentMode))
	require.NotNil(t, tx.Amount)
	assert.GreaterOrEqual(t, *tx.Amount, float64(0))
}

func TestRun_PreSeededTargetSkips(t *testing.T) {
	store := repository.NewMemoryTargetStore()
	require.NoError(t, store.Insert(context.Background(), patient("P1", "Pre-existing", 30)))

	snap := &snapshot.Snapshot{
		Source:   "test",
		Patients: []*domain.PatientRecord{patient("P1", "A", 30), patient("P2", "B", 40)},
	}

	imp := New(store, registry.New(), zap.NewNop())
	rep, err := imp.Run(context.Background(), snap)
	require.NoError(t, err)
	require.True(t, rep.OK)

	er := rep.Entity(domain.EntityPatient)
	assert.Equal(t, 1, er.AlreadyPresent)
	assert.Equal(t, 1, er.NewlyImported)
	assert.True(t, er.Complete)
}

// failingStore wraps the memory store with injected failures.
type failingStore struct {
	*repository.MemoryTargetStore
	failListFor   domain.EntityType
	failInsertIDs map[string]error
}

func (s *failingStore) ListIDs(ctx context.Context, entity domain.EntityType) ([]string, error) {
	if entity == s.failListFor {
		return nil, fmt.Errorf("%w: dial tcp: connection refused", repository.ErrFatalStore)
	}
	return s.MemoryTargetStore.ListIDs(ctx, entity)
}

func (s *failingStore) Insert(ctx context.Context, rec domain.Record) error {
	if err, ok := s.failInsertIDs[rec.Key()]; ok {
		return err
	}
	return s.MemoryTargetStore.Insert(ctx, rec)
}

func TestRun_FatalStoreErrorAbortsRun(t *testing.T) {
	snap := &snapshot.Snapshot{
		Source:      "test",
		Departments: []*domain.DepartmentRecord{{ID: "DEP1", Name: "Cardiology"}},
		Doctors:     []*domain.DoctorRecord{{ID: "D1", FullName: "Dr. Rao", Department: "Cardiology", Fee: fptr(500)}},
		Patients:    []*domain.PatientRecord{patient("P1", "A", 30)},
	}

	store := &failingStore{
		MemoryTargetStore: repository.NewMemoryTargetStore(),
		failListFor:       domain.EntityDoctor,
	}

	imp := New(store, registry.New(), zap.NewNop())
	rep, err := imp.Run(context.Background(), snap)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrFatalStore)

	// Departments completed before the abort and stay committed.
	require.NotNil(t, rep.Entity(domain.EntityDepartment))
	assert.True(t, rep.Entity(domain.EntityDepartment).Complete)
	assert.Equal(t, 1, store.Count(domain.EntityDepartment))

	// The doctors pass is marked aborted; later passes never started.
	require.NotNil(t, rep.Entity(domain.EntityDoctor))
	assert.True(t, rep.Entity(domain.EntityDoctor).Aborted)
	assert.Nil(t, rep.Entity(domain.EntityPatient))

	assert.False(t, rep.OK)
	assert.NotEmpty(t, rep.FatalError)
}

func TestRun_ConstraintViolationContinues(t *testing.T) {
	snap := &snapshot.Snapshot{
		Source:   "test",
		Patients: []*domain.PatientRecord{patient("P1", "A", 30), patient("P2", "B", 40)},
	}

	store := &failingStore{
		MemoryTargetStore: repository.NewMemoryTargetStore(),
		failInsertIDs: map[string]error{
			"P1": fmt.Errorf("%w: insert: schema drift", repository.ErrConstraintViolation),
		},
	}

	imp := New(store, registry.New(), zap.NewNop())
	rep, err := imp.Run(context.Background(), snap)
	require.NoError(t, err, "a per-record store rejection must not abort the run")

	er := rep.Entity(domain.EntityPatient)
	assert.Equal(t, 1, er.Rejected)
	assert.Equal(t, 1, er.RejectionReasons[string(rules.ReasonConstraintViolation)])
	assert.Equal(t, 1, er.NewlyImported)
	assert.False(t, er.Complete)
	assert.False(t, rep.OK)
}

func TestRun_MalformedDateNullifiedAndRunContinues(t *testing.T) {
	// One transaction with a date the target DATE column would reject.
	// The date is nullified on repair and the rest of the run proceeds.
	badDate := transaction("T1", "P1")
	badDate.TransactionDate = sptr("15/01/2024")
	goodDate := transaction("T2", "P1")
	goodDate.TransactionDate = sptr("2024-01-16")

	snap := &snapshot.Snapshot{
		Source:       "test",
		Patients:     []*domain.PatientRecord{patient("P1", "A", 30)},
		Transactions: []*domain.TransactionRecord{badDate, goodDate},
	}

	store := repository.NewMemoryTargetStore()
	imp := New(store, registry.New(), zap.NewNop())
	rep, err := imp.Run(context.Background(), snap)
	require.NoError(t, err)

	txs := rep.Entity(domain.EntityTransaction)
	require.NotNil(t, txs)
	assert.Equal(t, 2, txs.NewlyImported)
	assert.Equal(t, 1, txs.RepairedAndImported)
	assert.Equal(t, 0, txs.Rejected)
	assert.True(t, txs.Complete)

	stored, found := store.Get(domain.EntityTransaction, "T1")
	require.True(t, found)
	assert.Nil(t, stored.(*domain.TransactionRecord).TransactionDate)

	stored, found = store.Get(domain.EntityTransaction, "T2")
	require.True(t, found)
	require.NotNil(t, stored.(*domain.TransactionRecord).TransactionDate)
	assert.Equal(t, "2024-01-16", *stored.(*domain.TransactionRecord).TransactionDate)
}
