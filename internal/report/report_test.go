package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospicrm-migrator/internal/domain"
	"hospicrm-migrator/internal/rules"
)

func TestBuilder_CompleteRun(t *testing.T) {
	b := NewBuilder()
	require.NotEmpty(t, b.RunID())

	c := b.StartEntity(domain.EntityPatient, 3)
	c.SkipExisting()
	c.Imported(nil)
	c.Imported([]rules.AppliedRepair{{Kind: rules.RepairEnumCoerced, Field: "gender"}})

	rep := b.Finalize("snapshot.json", false, nil)
	require.True(t, rep.OK)
	assert.Equal(t, 0, rep.ExitCode())
	assert.Equal(t, "snapshot.json", rep.Source)
	assert.False(t, rep.FinishedAt.Before(rep.StartedAt))

	er := rep.Entity(domain.EntityPatient)
	require.NotNil(t, er)
	assert.Equal(t, 3, er.SourceCount)
	assert.Equal(t, 1, er.AlreadyPresent)
	assert.Equal(t, 2, er.NewlyImported)
	assert.Equal(t, 1, er.RepairedAndImported)
	assert.Equal(t, 0, er.Rejected)
	assert.True(t, er.Complete)
	assert.Equal(t, 1, er.RepairsApplied[string(rules.RepairEnumCoerced)])
}

func TestBuilder_RejectionMakesIncomplete(t *testing.T) {
	b := NewBuilder()

	c := b.StartEntity(domain.EntityTransaction, 2)
	c.Imported(nil)
	c.Reject([]rules.Reason{{Code: rules.ReasonUnresolvableReference, Field: "patient_id"}})

	rep := b.Finalize("snapshot.json", false, nil)
	require.False(t, rep.OK)
	assert.Equal(t, 1, rep.ExitCode())

	er := rep.Entity(domain.EntityTransaction)
	require.NotNil(t, er)
	assert.False(t, er.Complete)
	assert.Equal(t, 1, er.Rejected)
	assert.Equal(t, 1, er.RejectionReasons[string(rules.ReasonUnresolvableReference)])
}

func TestBuilder_OKIsANDOfAllEntities(t *testing.T) {
	b := NewBuilder()

	c1 := b.StartEntity(domain.EntityDoctor, 1)
	c1.Imported(nil)
	c2 := b.StartEntity(domain.EntityBed, 1)
	c2.Reject([]rules.Reason{{Code: rules.ReasonMissingRequired, Field: "bed_number"}})

	rep := b.Finalize("s.json", false, nil)
	assert.True(t, rep.Entity(domain.EntityDoctor).Complete)
	assert.False(t, rep.Entity(domain.EntityBed).Complete)
	assert.False(t, rep.OK)
}

func TestBuilder_FatalErrorForcesFailure(t *testing.T) {
	b := NewBuilder()
	c := b.StartEntity(domain.EntityDepartment, 1)
	c.Imported(nil)
	c.Abort()

	rep := b.Finalize("s.json", false, errors.New("target store unavailable"))
	require.False(t, rep.OK)
	assert.Equal(t, "target store unavailable", rep.FatalError)
	assert.True(t, rep.Entity(domain.EntityDepartment).Aborted)
}

func TestReport_WriteFile(t *testing.T) {
	b := NewBuilder()
	c := b.StartEntity(domain.EntityPatient, 1)
	c.Imported(nil)
	rep := b.Finalize("s.json", true, nil)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, rep.Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rep.RunID, decoded.RunID)
	assert.True(t, decoded.DryRun)
	require.Len(t, decoded.Entities, 1)
	assert.Equal(t, string(domain.EntityPatient), decoded.Entities[0].Entity)
}
