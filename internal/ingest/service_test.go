package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"careerfit.kr/careerfit/internal/db"
	"careerfit.kr/careerfit/internal/fingerprint"
	"careerfit.kr/careerfit/internal/normalize"
)

// fakeStore is an in-memory PostingUnit implementation with real
// transaction semantics: a unit works on a copy of the committed state and
// merges it back on Commit, so a rollback discards everything.
type fakeStore struct {
	state      *fakeState
	failHashes map[string]bool
}

type fakeState struct {
	nextID     int64
	companies  map[string]int64
	dimensions map[db.DimensionKind]map[string]int64
	postings   map[string]*fakePosting
	links      map[db.DimensionKind]map[string]bool
}

type fakePosting struct {
	id               int64
	row              db.PostingRow
	employmentTypeID *int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		state:      newFakeState(),
		failHashes: map[string]bool{},
	}
}

func newFakeState() *fakeState {
	return &fakeState{
		companies:  map[string]int64{},
		dimensions: map[db.DimensionKind]map[string]int64{},
		postings:   map[string]*fakePosting{},
		links:      map[db.DimensionKind]map[string]bool{},
	}
}

func (s *fakeState) clone() *fakeState {
	cloned := newFakeState()
	cloned.nextID = s.nextID
	for name, id := range s.companies {
		cloned.companies[name] = id
	}
	for kind, names := range s.dimensions {
		cloned.dimensions[kind] = map[string]int64{}
		for name, id := range names {
			cloned.dimensions[kind][name] = id
		}
	}
	for hash, posting := range s.postings {
		copied := *posting
		if posting.employmentTypeID != nil {
			id := *posting.employmentTypeID
			copied.employmentTypeID = &id
		}
		cloned.postings[hash] = &copied
	}
	for kind, pairs := range s.links {
		cloned.links[kind] = map[string]bool{}
		for pair := range pairs {
			cloned.links[kind][pair] = true
		}
	}
	return cloned
}

func (f *fakeStore) Begin(_ context.Context) (db.PostingUnit, error) {
	return &fakeUnit{store: f, state: f.state.clone()}, nil
}

func (f *fakeStore) BackfillEmploymentType(_ context.Context, name string) (int64, error) {
	dims, ok := f.state.dimensions[db.DimensionEmploymentType]
	if !ok {
		dims = map[string]int64{}
		f.state.dimensions[db.DimensionEmploymentType] = dims
	}
	id, ok := dims[name]
	if !ok {
		f.state.nextID++
		id = f.state.nextID
		dims[name] = id
	}

	var updated int64
	for _, posting := range f.state.postings {
		if posting.employmentTypeID == nil {
			assigned := id
			posting.employmentTypeID = &assigned
			updated++
		}
	}
	return updated, nil
}

type fakeUnit struct {
	store     *fakeStore
	state     *fakeState
	committed bool
}

func (u *fakeUnit) EnsureCompany(_ context.Context, name string) (int64, error) {
	if id, ok := u.state.companies[name]; ok {
		return id, nil
	}
	u.state.nextID++
	u.state.companies[name] = u.state.nextID
	return u.state.nextID, nil
}

func (u *fakeUnit) EnsureDimension(_ context.Context, kind db.DimensionKind, name string) (int64, error) {
	dims, ok := u.state.dimensions[kind]
	if !ok {
		dims = map[string]int64{}
		u.state.dimensions[kind] = dims
	}
	if id, ok := dims[name]; ok {
		return id, nil
	}
	u.state.nextID++
	dims[name] = u.state.nextID
	return u.state.nextID, nil
}

func (u *fakeUnit) InsertPostingIfAbsent(_ context.Context, row db.PostingRow) (bool, error) {
	if _, exists := u.state.postings[row.LinkHash]; exists {
		return false, nil
	}
	if u.store.failHashes[row.LinkHash] {
		// Simulates an insert silently rejected by a constraint other
		// than the fingerprint conflict.
		return false, nil
	}
	u.state.nextID++
	u.state.postings[row.LinkHash] = &fakePosting{id: u.state.nextID, row: row}
	return true, nil
}

func (u *fakeUnit) FindPostingIDByHash(_ context.Context, linkHash string) (int64, error) {
	posting, ok := u.state.postings[linkHash]
	if !ok {
		return 0, db.ErrNoRows
	}
	return posting.id, nil
}

func (u *fakeUnit) LinkDimension(_ context.Context, kind db.DimensionKind, postingID, dimensionID int64) error {
	pairs, ok := u.state.links[kind]
	if !ok {
		pairs = map[string]bool{}
		u.state.links[kind] = pairs
	}
	pairs[fmt.Sprintf("%d:%d", postingID, dimensionID)] = true
	return nil
}

func (u *fakeUnit) SetEmploymentType(_ context.Context, postingID, employmentTypeID int64) error {
	for _, posting := range u.state.postings {
		if posting.id == postingID {
			id := employmentTypeID
			posting.employmentTypeID = &id
			return nil
		}
	}
	return fmt.Errorf("posting %d not found", postingID)
}

func (u *fakeUnit) Commit(_ context.Context) error {
	u.store.state = u.state
	u.committed = true
	return nil
}

func (u *fakeUnit) Rollback(_ context.Context) error {
	// A rollback after commit is the deferred no-op path.
	return nil
}

func testRecord(link string) normalize.Record {
	return normalize.Record{
		Company:        "테크컴퍼니",
		Title:          "백엔드 개발자",
		Link:           link,
		Locations:      []string{"서울", "경기"},
		Experiences:    []string{"경력무관"},
		Education:      "대졸이상",
		EmploymentType: "정규직",
		Salary:         normalize.SalaryNegotiable,
		Deadline:       "05/31",
		Sectors:        []string{"백엔드/서버개발", "웹개발"},
		ModifiedDate:   "2024-05-01",
	}
}

func TestUpsertPostingIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(store, zerolog.Nop())
	rec := testRecord("https://example.com/jobs/1")

	if err := svc.UpsertPosting(context.Background(), rec); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := svc.UpsertPosting(context.Background(), rec); err != nil {
		t.Fatalf("second upsert must be a no-op, not an error: %v", err)
	}
	if len(store.state.postings) != 1 {
		t.Fatalf("expected exactly one posting, got %d", len(store.state.postings))
	}
}

func TestUpsertPostingRoundTrip(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(store, zerolog.Nop())
	rec := testRecord("https://example.com/jobs/roundtrip")

	if err := svc.UpsertPosting(context.Background(), rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	stored, ok := store.state.postings[fingerprint.Hash(rec.Link)]
	if !ok {
		t.Fatalf("posting not found by fingerprint")
	}
	if stored.row.Title != rec.Title || stored.row.Link != rec.Link || stored.row.Deadline != rec.Deadline {
		t.Fatalf("stored row does not match record: %+v", stored.row)
	}
	if stored.employmentTypeID == nil {
		t.Fatalf("primary employment type reference not set")
	}
	if stored.row.EducationID == nil {
		t.Fatalf("education reference not set")
	}
}

func TestUpsertPostingReusesDimensions(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(store, zerolog.Nop())

	first := testRecord("https://example.com/jobs/1")
	second := testRecord("https://example.com/jobs/2")

	if err := svc.UpsertPosting(context.Background(), first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := svc.UpsertPosting(context.Background(), second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if len(store.state.companies) != 1 {
		t.Fatalf("expected one company row, got %d", len(store.state.companies))
	}
	if len(store.state.postings) != 2 {
		t.Fatalf("expected two postings, got %d", len(store.state.postings))
	}
	companyID := store.state.companies[first.Company]
	for hash, posting := range store.state.postings {
		if posting.row.CompanyID != companyID {
			t.Fatalf("posting %s does not reference the shared company", hash)
		}
	}
}

func TestUpsertPostingIntegrityFailureRollsBack(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(store, zerolog.Nop())
	rec := testRecord("https://example.com/jobs/broken")
	store.failHashes[fingerprint.Hash(rec.Link)] = true

	err := svc.UpsertPosting(context.Background(), rec)
	if !errors.Is(err, ErrPostingMissing) {
		t.Fatalf("expected ErrPostingMissing, got %v", err)
	}
	if len(store.state.companies) != 0 {
		t.Fatalf("rolled-back unit must not leak the company row")
	}
	if len(store.state.postings) != 0 {
		t.Fatalf("rolled-back unit must not leak the posting row")
	}
}

func TestUpsertBatchIsolatesFailures(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(store, zerolog.Nop())

	records := make([]normalize.Record, 0, 5)
	for i := 1; i <= 5; i++ {
		records = append(records, testRecord(fmt.Sprintf("https://example.com/jobs/%d", i)))
	}
	store.failHashes[fingerprint.Hash(records[2].Link)] = true

	persisted, err := svc.UpsertBatch(context.Background(), records)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if persisted != 4 {
		t.Fatalf("expected 4 persisted records, got %d", persisted)
	}
	if len(store.state.postings) != 4 {
		t.Fatalf("expected 4 postings, got %d", len(store.state.postings))
	}
}

func TestUpsertBatchBackfillsEmploymentType(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(store, zerolog.Nop())

	rec := testRecord("https://example.com/jobs/no-type")
	rec.EmploymentType = ""

	if _, err := svc.UpsertBatch(context.Background(), []normalize.Record{rec}); err != nil {
		t.Fatalf("batch: %v", err)
	}

	posting := store.state.postings[fingerprint.Hash(rec.Link)]
	if posting == nil || posting.employmentTypeID == nil {
		t.Fatalf("expected backfilled employment type")
	}
	sentinelID := store.state.dimensions[db.DimensionEmploymentType][normalize.EmploymentTypeUnspecified]
	if *posting.employmentTypeID != sentinelID {
		t.Fatalf("backfill must assign the unspecified sentinel")
	}
}
