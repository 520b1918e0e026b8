// Package ingest persists normalized postings into the relational schema.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"careerfit.kr/careerfit/internal/db"
	"careerfit.kr/careerfit/internal/fingerprint"
	"careerfit.kr/careerfit/internal/normalize"
)

// ErrPostingMissing signals a data-integrity failure: the posting could not
// be found by fingerprint after the insert attempt, meaning the insert was
// silently rejected for a reason other than the fingerprint conflict.
var ErrPostingMissing = errors.New("posting not found after insert attempt")

// Store opens per-record units of work and runs the post-batch cleanup.
// *db.PostingStore is the production implementation.
type Store interface {
	Begin(ctx context.Context) (db.PostingUnit, error)
	BackfillEmploymentType(ctx context.Context, name string) (int64, error)
}

type Service struct {
	store  Store
	logger zerolog.Logger
}

func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// UpsertPosting persists one normalized record as a single atomic unit of
// work. A record whose fingerprint already exists is a no-op for the fact
// row; dimension and link rows are still reconciled, which is itself
// idempotent. Any failure rolls back the whole record.
func (s *Service) UpsertPosting(ctx context.Context, rec normalize.Record) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("ingest service is not initialized")
	}
	if err := validateRecord(rec); err != nil {
		return err
	}

	unit, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin unit of work: %w", err)
	}
	defer func() {
		_ = unit.Rollback(ctx)
	}()

	companyID, err := unit.EnsureCompany(ctx, rec.Company)
	if err != nil {
		return fmt.Errorf("ensure company: %w", err)
	}

	var educationID *int64
	if education := strings.TrimSpace(rec.Education); education != "" {
		id, err := unit.EnsureDimension(ctx, db.DimensionEducation, education)
		if err != nil {
			return fmt.Errorf("ensure education: %w", err)
		}
		educationID = &id
	}

	linkHash := fingerprint.Hash(rec.Link)
	inserted, err := unit.InsertPostingIfAbsent(ctx, db.PostingRow{
		CompanyID:    companyID,
		EducationID:  educationID,
		Title:        rec.Title,
		Link:         rec.Link,
		LinkHash:     linkHash,
		Deadline:     rec.Deadline,
		ModifiedDate: optionalString(rec.ModifiedDate),
		Salary:       rec.Salary,
	})
	if err != nil {
		return fmt.Errorf("insert posting: %w", err)
	}

	postingID, err := unit.FindPostingIDByHash(ctx, linkHash)
	if err != nil {
		if db.IsNoRows(err) {
			return fmt.Errorf("fingerprint %s: %w", linkHash, ErrPostingMissing)
		}
		return fmt.Errorf("find posting by fingerprint: %w", err)
	}

	if err := s.linkValues(ctx, unit, db.DimensionExperience, postingID, rec.Experiences); err != nil {
		return err
	}
	if err := s.linkValues(ctx, unit, db.DimensionLocation, postingID, rec.Locations); err != nil {
		return err
	}

	if employmentType := strings.TrimSpace(rec.EmploymentType); employmentType != "" {
		employmentTypeID, err := unit.EnsureDimension(ctx, db.DimensionEmploymentType, employmentType)
		if err != nil {
			return fmt.Errorf("ensure employment type: %w", err)
		}
		if err := unit.LinkDimension(ctx, db.DimensionEmploymentType, postingID, employmentTypeID); err != nil {
			return fmt.Errorf("link employment type: %w", err)
		}
		if err := unit.SetEmploymentType(ctx, postingID, employmentTypeID); err != nil {
			return fmt.Errorf("set primary employment type: %w", err)
		}
	}

	if err := s.linkValues(ctx, unit, db.DimensionSector, postingID, rec.Sectors); err != nil {
		return err
	}

	if err := unit.Commit(ctx); err != nil {
		return fmt.Errorf("commit unit of work: %w", err)
	}

	s.logger.Debug().
		Str("link_hash", linkHash).
		Str("company", rec.Company).
		Bool("inserted", inserted).
		Msg("posting upserted")
	return nil
}

// UpsertBatch persists records one at a time. A failed record is logged
// and does not affect the rest of the batch. After the batch, postings
// still lacking an employment type get the unspecified sentinel.
func (s *Service) UpsertBatch(ctx context.Context, records []normalize.Record) (int, error) {
	if s == nil || s.store == nil {
		return 0, fmt.Errorf("ingest service is not initialized")
	}

	persisted := 0
	for _, rec := range records {
		if err := s.UpsertPosting(ctx, rec); err != nil {
			s.logger.Error().
				Err(err).
				Str("link", rec.Link).
				Str("company", rec.Company).
				Msg("posting upsert failed")
			continue
		}
		persisted++
	}

	backfilled, err := s.store.BackfillEmploymentType(ctx, normalize.EmploymentTypeUnspecified)
	if err != nil {
		return persisted, fmt.Errorf("backfill employment types: %w", err)
	}
	if backfilled > 0 {
		s.logger.Info().Int64("postings", backfilled).Msg("employment type backfilled")
	}

	return persisted, nil
}

func (s *Service) linkValues(ctx context.Context, unit db.PostingUnit, kind db.DimensionKind, postingID int64, values []string) error {
	for _, value := range values {
		name := strings.TrimSpace(value)
		if name == "" {
			continue
		}
		dimensionID, err := unit.EnsureDimension(ctx, kind, name)
		if err != nil {
			return fmt.Errorf("ensure %s %q: %w", kind, name, err)
		}
		if err := unit.LinkDimension(ctx, kind, postingID, dimensionID); err != nil {
			return fmt.Errorf("link %s %q: %w", kind, name, err)
		}
	}
	return nil
}

func validateRecord(rec normalize.Record) error {
	if strings.TrimSpace(rec.Company) == "" {
		return fmt.Errorf("company is required")
	}
	if strings.TrimSpace(rec.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(rec.Link) == "" {
		return fmt.Errorf("link is required")
	}
	return nil
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
