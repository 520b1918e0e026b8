package db

import (
	"context"
	"fmt"
)

// DimensionKind selects one of the unique-name dimension tables.
type DimensionKind string

const (
	DimensionEducation      DimensionKind = "education"
	DimensionExperience     DimensionKind = "experience"
	DimensionLocation       DimensionKind = "location"
	DimensionEmploymentType DimensionKind = "employment_type"
	DimensionSector         DimensionKind = "sector"
)

type dimensionTable struct {
	table      string
	idColumn   string
	linkTable  string
	linkColumn string
}

// dimensionTables is a fixed map; table and column names are never taken
// from input.
var dimensionTables = map[DimensionKind]dimensionTable{
	DimensionEducation: {
		table:    "educations",
		idColumn: "education_id",
	},
	DimensionExperience: {
		table:      "experiences",
		idColumn:   "experience_id",
		linkTable:  "job_posting_experiences",
		linkColumn: "experience_id",
	},
	DimensionLocation: {
		table:      "locations",
		idColumn:   "location_id",
		linkTable:  "job_posting_locations",
		linkColumn: "location_id",
	},
	DimensionEmploymentType: {
		table:      "employment_types",
		idColumn:   "employment_type_id",
		linkTable:  "job_posting_employment_types",
		linkColumn: "employment_type_id",
	},
	DimensionSector: {
		table:      "sectors",
		idColumn:   "sector_id",
		linkTable:  "job_posting_sectors",
		linkColumn: "sector_id",
	},
}

// PostingRow is the fact-table slice of one normalized record.
type PostingRow struct {
	CompanyID    int64
	EducationID  *int64
	Title        string
	Link         string
	LinkHash     string
	Deadline     string
	ModifiedDate *string
	Salary       string
}

// PostingUnit is one atomic unit of work for a single posting. Create
// methods are no-ops on conflict, and lookups run after the create attempt
// inside the same transaction, so concurrent upserts of the same name
// cannot violate uniqueness.
type PostingUnit interface {
	EnsureCompany(ctx context.Context, name string) (int64, error)
	EnsureDimension(ctx context.Context, kind DimensionKind, name string) (int64, error)
	InsertPostingIfAbsent(ctx context.Context, row PostingRow) (bool, error)
	FindPostingIDByHash(ctx context.Context, linkHash string) (int64, error)
	LinkDimension(ctx context.Context, kind DimensionKind, postingID, dimensionID int64) error
	SetEmploymentType(ctx context.Context, postingID, employmentTypeID int64) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// PostingStore opens posting units of work against the pool.
type PostingStore struct {
	pool *Pool
}

func NewPostingStore(pool *Pool) *PostingStore {
	return &PostingStore{pool: pool}
}

func (s *PostingStore) Begin(ctx context.Context) (PostingUnit, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("posting store is not initialized")
	}
	tx, err := s.pool.BeginTx(ctx, TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin posting unit: %w", err)
	}
	return &postingUnit{tx: tx}, nil
}

// BackfillEmploymentType assigns the given employment-type name to every
// posting left without one. Runs outside any per-record unit of work.
func (s *PostingStore) BackfillEmploymentType(ctx context.Context, name string) (int64, error) {
	if s == nil || s.pool == nil {
		return 0, fmt.Errorf("posting store is not initialized")
	}

	const ensure = `
INSERT INTO employment_types (name)
VALUES ($1)
ON CONFLICT (name) DO NOTHING
`
	if _, err := s.pool.Exec(ctx, ensure, name); err != nil {
		return 0, fmt.Errorf("ensure employment type %q: %w", name, err)
	}

	const backfill = `
UPDATE job_postings
SET employment_type_id = (SELECT employment_type_id FROM employment_types WHERE name = $1),
    updated_at = now()
WHERE employment_type_id IS NULL
`
	tag, err := s.pool.Exec(ctx, backfill, name)
	if err != nil {
		return 0, fmt.Errorf("backfill employment type: %w", err)
	}
	return tag.RowsAffected(), nil
}

type postingUnit struct {
	tx Tx
}

func (u *postingUnit) EnsureCompany(ctx context.Context, name string) (int64, error) {
	return u.ensureNamedRow(ctx, "companies", "company_id", name)
}

func (u *postingUnit) EnsureDimension(ctx context.Context, kind DimensionKind, name string) (int64, error) {
	dim, ok := dimensionTables[kind]
	if !ok {
		return 0, fmt.Errorf("unknown dimension kind %q", kind)
	}
	return u.ensureNamedRow(ctx, dim.table, dim.idColumn, name)
}

// ensureNamedRow is the create-if-absent-then-lookup step for unique-name
// tables. The insert is a no-op on conflict; the lookup always follows it
// in the same transaction.
func (u *postingUnit) ensureNamedRow(ctx context.Context, table, idColumn, name string) (int64, error) {
	insert := fmt.Sprintf(`
INSERT INTO %s (name)
VALUES ($1)
ON CONFLICT (name) DO NOTHING
RETURNING %s
`, table, idColumn)

	var id int64
	err := u.tx.QueryRow(ctx, insert, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !IsNoRows(err) {
		return 0, fmt.Errorf("insert %s %q: %w", table, name, err)
	}

	lookup := fmt.Sprintf(`SELECT %s FROM %s WHERE name = $1`, idColumn, table)
	if err := u.tx.QueryRow(ctx, lookup, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup %s %q: %w", table, name, err)
	}
	return id, nil
}

func (u *postingUnit) InsertPostingIfAbsent(ctx context.Context, row PostingRow) (bool, error) {
	const q = `
INSERT INTO job_postings (
	company_id,
	education_id,
	title,
	link,
	link_hash,
	deadline,
	modified_date,
	salary,
	created_at,
	updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8, now(), now())
ON CONFLICT (link_hash) DO NOTHING
RETURNING posting_id
`

	var postingID int64
	err := u.tx.QueryRow(
		ctx,
		q,
		row.CompanyID,
		row.EducationID,
		row.Title,
		row.Link,
		row.LinkHash,
		row.Deadline,
		row.ModifiedDate,
		row.Salary,
	).Scan(&postingID)
	if err != nil {
		if IsNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert job posting: %w", err)
	}
	return true, nil
}

func (u *postingUnit) FindPostingIDByHash(ctx context.Context, linkHash string) (int64, error) {
	const q = `SELECT posting_id FROM job_postings WHERE link_hash = $1`

	var postingID int64
	if err := u.tx.QueryRow(ctx, q, linkHash).Scan(&postingID); err != nil {
		return 0, err
	}
	return postingID, nil
}

func (u *postingUnit) LinkDimension(ctx context.Context, kind DimensionKind, postingID, dimensionID int64) error {
	dim, ok := dimensionTables[kind]
	if !ok {
		return fmt.Errorf("unknown dimension kind %q", kind)
	}
	if dim.linkTable == "" {
		return fmt.Errorf("dimension %q has no link table", kind)
	}

	insert := fmt.Sprintf(`
INSERT INTO %s (posting_id, %s)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`, dim.linkTable, dim.linkColumn)

	if _, err := u.tx.Exec(ctx, insert, postingID, dimensionID); err != nil {
		return fmt.Errorf("link %s: %w", dim.linkTable, err)
	}
	return nil
}

func (u *postingUnit) SetEmploymentType(ctx context.Context, postingID, employmentTypeID int64) error {
	const q = `
UPDATE job_postings
SET employment_type_id = $2, updated_at = now()
WHERE posting_id = $1
`
	if _, err := u.tx.Exec(ctx, q, postingID, employmentTypeID); err != nil {
		return fmt.Errorf("set employment type: %w", err)
	}
	return nil
}

func (u *postingUnit) Commit(ctx context.Context) error {
	return u.tx.Commit(ctx)
}

func (u *postingUnit) Rollback(ctx context.Context) error {
	return u.tx.Rollback(ctx)
}
