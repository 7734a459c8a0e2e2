// Package importer drives the migration pipeline: for each entity type in
// the fixed dependency order it pulls records from the snapshot, skips the
// ones already present, validates, repairs, and writes the rest, and
// aggregates the outcome into the reconciliation report.
package importer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"hospicrm-migrator/internal/domain"
	"hospicrm-migrator/internal/registry"
	"hospicrm-migrator/internal/report"
	"hospicrm-migrator/internal/repository"
	"hospicrm-migrator/internal/rules"
	"hospicrm-migrator/internal/snapshot"
)

// Importer owns the target store connection for the run's duration.
// Processing is strictly sequential: correctness of the dependency order
// relies on earlier writes being registered before later records validate.
type Importer struct {
	store     repository.TargetStore
	registry  *registry.Registry
	validator *rules.Validator
	repairer  *rules.RepairEngine
	logger    *zap.Logger

	// DryRun is echoed into the report; the caller decides the store.
	DryRun bool
}

func New(store repository.TargetStore, reg *registry.Registry, logger *zap.Logger) *Importer {
	normalizer := rules.NewNormalizer()
	return &Importer{
		store:     store,
		registry:  reg,
		validator: rules.NewValidator(normalizer),
		repairer:  rules.NewRepairEngine(normalizer),
		logger:    logger,
	}
}

// Run migrates the snapshot into the target store and returns the
// reconciliation report. The returned error is non-nil only for fatal
// failures (store unreachable); the report then reflects the entity
// passes actually committed. Per-record failures never surface here.
func (i *Importer) Run(ctx context.Context, snap *snapshot.Snapshot) (*report.Report, error) {
	builder := report.NewBuilder()
	logger := i.logger.With(zap.String("run_id", builder.RunID()))

	logger.Info("Migration run starting", zap.String("source", snap.Source), zap.Bool("dry_run", i.DryRun))

	for _, entity := range domain.ImportOrder {
		records := snap.Records(entity)
		counters := builder.StartEntity(entity, len(records))
		entityLog := logger.With(zap.String("entity", string(entity)))

		// Seed the registry from the target so re-runs are no-ops and a
		// restarted process resumes from the committed state.
		ids, err := i.store.ListIDs(ctx, entity)
		if err != nil {
			counters.Abort()
			fatal := fmt.Errorf("seed registry for %s: %w", entity, err)
			entityLog.Error("Aborting run", zap.Error(fatal))
			return builder.Finalize(snap.Source, i.DryRun, fatal), fatal
		}
		i.registry.BulkLoad(entity, ids)

		entityLog.Info("Importing entity type",
			zap.Int("source_count", len(records)),
			zap.Int("pre_existing", i.registry.Count(entity)),
		)

		for _, rec := range records {
			if err := i.importRecord(ctx, rec, counters, entityLog); err != nil {
				counters.Abort()
				entityLog.Error("Aborting run", zap.Error(err))
				return builder.Finalize(snap.Source, i.DryRun, err), err
			}
		}
	}

	rep := builder.Finalize(snap.Source, i.DryRun, nil)
	logger.Info("Migration run finished", zap.Bool("ok", rep.OK))
	return rep, nil
}

// importRecord runs one record through the per-record state machine:
// registry hit -> skipped; Valid -> written; Repairable -> repaired, must
// validate cleanly in one pass, then written; Rejected -> failed.
// A non-nil return is fatal for the whole run.
func (i *Importer) importRecord(ctx context.Context, rec domain.Record, counters *report.EntityCounters, logger *zap.Logger) error {
	entity := rec.EntityType()

	if i.registry.Contains(entity, rec.Key()) {
		counters.SkipExisting()
		return nil
	}

	res := i.validator.Validate(rec, i.registry)
	switch res.Verdict {
	case rules.VerdictRejected:
		counters.Reject(res.Reasons)
		logger.Warn("Record rejected",
			zap.String("id", rec.Key()),
			zap.Any("reasons", res.Reasons),
		)
		return nil

	case rules.VerdictValid:
		return i.write(ctx, rec, nil, counters, logger)

	case rules.VerdictRepairable:
		repaired, applied := i.repairer.Repair(rec, res.Reasons)
		// One repair pass only. A record that still fails is a failed
		// record; the engine never loops or retries.
		again := i.validator.Validate(repaired, i.registry)
		if again.Verdict != rules.VerdictValid {
			counters.Reject(again.Reasons)
			logger.Warn("Record still invalid after repair",
				zap.String("id", rec.Key()),
				zap.Any("reasons", again.Reasons),
			)
			return nil
		}
		return i.write(ctx, repaired, applied, counters, logger)
	}

	return nil
}

func (i *Importer) write(ctx context.Context, rec domain.Record, applied []rules.AppliedRepair, counters *report.EntityCounters, logger *zap.Logger) error {
	err := i.store.Insert(ctx, rec)
	if err != nil {
		if errors.Is(err, repository.ErrConstraintViolation) {
			// Schema drift: the store knows a constraint local validation
			// does not. Record and continue.
			counters.Reject([]rules.Reason{{
				Code:   rules.ReasonConstraintViolation,
				Detail: err.Error(),
			}})
			logger.Warn("Target store rejected record",
				zap.String("id", rec.Key()),
				zap.Error(err),
			)
			return nil
		}
		return fmt.Errorf("write %s %s: %w", rec.EntityType(), rec.Key(), err)
	}

	// Register immediately so the record is visible to later records in
	// this and subsequent entity passes.
	i.registry.Register(rec.EntityType(), rec.Key())
	counters.Imported(applied)

	if len(applied) > 0 {
		logger.Debug("Record repaired and imported",
			zap.String("id", rec.Key()),
			zap.Any("repairs", applied),
		)
	}
	return nil
}
