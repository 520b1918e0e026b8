// Package refresh keeps the stored posting set current: it expires
// deadlined postings, revalidates open-ended ones, and ingests unseen
// listings from an incremental crawl.
package refresh

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"careerfit.kr/careerfit/internal/db"
	"careerfit.kr/careerfit/internal/fingerprint"
	"careerfit.kr/careerfit/internal/globaltime"
	"careerfit.kr/careerfit/internal/normalize"
)

// OpenEndedDeadlines are the deadline sentinels meaning "open until
// filled"; postings carrying one are validated by probing their link
// instead of by date.
var OpenEndedDeadlines = []string{"채용시", "상시채용"}

// monthDayPattern matches an MM/DD date anywhere in a deadline string.
var monthDayPattern = regexp.MustCompile(`(\d{2})/(\d{2})`)

// Store is the posting persistence surface the orchestrator sweeps over.
// *db.Pool is the production implementation.
type Store interface {
	ListPostingDeadlines(ctx context.Context) ([]db.PostingDeadline, error)
	ListPostingsByDeadline(ctx context.Context, deadlines ...string) ([]db.PostingLink, error)
	ListFingerprints(ctx context.Context) (map[string]struct{}, error)
	DeletePosting(ctx context.Context, postingID int64) error
}

// Crawler produces normalized records for a bounded page count.
type Crawler interface {
	Crawl(ctx context.Context, pages int) ([]normalize.Record, error)
}

// Prober checks whether an open-ended posting's link is still alive. A nil
// return retains the posting; any error deletes it.
type Prober interface {
	Check(ctx context.Context, link string) error
}

// Upserter hands filtered records to the upsert coordinator.
type Upserter interface {
	UpsertBatch(ctx context.Context, records []normalize.Record) (int, error)
}

type Service struct {
	store    Store
	crawler  Crawler
	prober   Prober
	upserter Upserter
	pages    int
	logger   zerolog.Logger
}

func NewService(store Store, crawler Crawler, prober Prober, upserter Upserter, pages int, logger zerolog.Logger) *Service {
	if pages < 1 {
		pages = 1
	}
	return &Service{
		store:    store,
		crawler:  crawler,
		prober:   prober,
		upserter: upserter,
		pages:    pages,
		logger:   logger,
	}
}

// RunCycle executes one full refresh: deadline sweep, open-ended liveness
// check, fingerprint snapshot, incremental crawl, and batch upsert of the
// previously unseen records. Per-item failures inside each phase are
// logged and skipped; only phase-level storage failures abort the cycle.
func (s *Service) RunCycle(ctx context.Context) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("refresh service is not initialized")
	}

	if err := s.sweepDeadlines(ctx); err != nil {
		return fmt.Errorf("deadline sweep: %w", err)
	}
	if err := s.validateOpenEnded(ctx); err != nil {
		return fmt.Errorf("open-ended validation: %w", err)
	}

	existing, err := s.store.ListFingerprints(ctx)
	if err != nil {
		return fmt.Errorf("load fingerprint snapshot: %w", err)
	}

	records, err := s.crawler.Crawl(ctx, s.pages)
	if err != nil {
		return fmt.Errorf("incremental crawl: %w", err)
	}

	unseen := FilterUnseen(records, existing)
	persisted, err := s.upserter.UpsertBatch(ctx, unseen)
	if err != nil {
		return fmt.Errorf("batch upsert: %w", err)
	}

	s.logger.Info().
		Int("crawled", len(records)).
		Int("unseen", len(unseen)).
		Int("persisted", persisted).
		Msg("refresh cycle completed")
	return nil
}

// sweepDeadlines deletes every posting whose MM/DD deadline, resolved in
// the current year, is strictly before today.
func (s *Service) sweepDeadlines(ctx context.Context) error {
	postings, err := s.store.ListPostingDeadlines(ctx)
	if err != nil {
		return err
	}

	today := globaltime.Now()
	deleted := 0
	for _, posting := range postings {
		if !DeadlinePassed(posting.Deadline, today) {
			continue
		}
		if err := s.store.DeletePosting(ctx, posting.PostingID); err != nil {
			s.logger.Error().Err(err).Int64("posting_id", posting.PostingID).Msg("expired posting delete failed")
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Info().Int("postings", deleted).Msg("expired postings removed")
	}
	return nil
}

// validateOpenEnded probes every open-ended posting's link and deletes the
// ones that no longer respond. One dead or unreachable link never stops
// the rest of the sweep.
func (s *Service) validateOpenEnded(ctx context.Context) error {
	postings, err := s.store.ListPostingsByDeadline(ctx, OpenEndedDeadlines...)
	if err != nil {
		return err
	}

	deleted := 0
	for _, posting := range postings {
		if err := s.prober.Check(ctx, posting.Link); err == nil {
			continue
		} else {
			s.logger.Info().
				Err(err).
				Int64("posting_id", posting.PostingID).
				Str("link", posting.Link).
				Msg("open-ended posting no longer reachable")
		}
		if err := s.store.DeletePosting(ctx, posting.PostingID); err != nil {
			s.logger.Error().Err(err).Int64("posting_id", posting.PostingID).Msg("dead posting delete failed")
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Info().Int("postings", deleted).Msg("dead open-ended postings removed")
	}
	return nil
}

// FilterUnseen keeps records whose fingerprint is absent from the snapshot,
// preserving crawl order. Duplicates within the batch collapse to their
// first occurrence.
func FilterUnseen(records []normalize.Record, existing map[string]struct{}) []normalize.Record {
	unseen := make([]normalize.Record, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		hash := fingerprint.Hash(rec.Link)
		if _, ok := existing[hash]; ok {
			continue
		}
		if _, ok := seen[hash]; ok {
			continue
		}
		seen[hash] = struct{}{}
		unseen = append(unseen, rec)
	}
	return unseen
}

// DeadlinePassed reports whether an MM/DD deadline, resolved in now's
// year, falls strictly before now's date. Sentinel and unparseable
// deadlines never pass.
func DeadlinePassed(deadline string, now time.Time) bool {
	match := monthDayPattern.FindStringSubmatch(deadline)
	if match == nil {
		return false
	}

	month, err := strconv.Atoi(match[1])
	if err != nil || month < 1 || month > 12 {
		return false
	}
	day, err := strconv.Atoi(match[2])
	if err != nil || day < 1 || day > 31 {
		return false
	}

	resolved := time.Date(now.Year(), time.Month(month), day, 0, 0, 0, 0, now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return resolved.Before(today)
}
