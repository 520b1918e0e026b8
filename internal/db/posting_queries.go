package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// PostingDeadline is the deadline-sweep read model.
type PostingDeadline struct {
	PostingID int64
	Deadline  string
}

// PostingLink is the liveness-check read model.
type PostingLink struct {
	PostingID int64
	Link      string
}

// PostingSummary is the list read model for API responses.
type PostingSummary struct {
	PostingID      int64     `json:"posting_id"`
	Company        string    `json:"company"`
	Title          string    `json:"title"`
	Link           string    `json:"link"`
	LinkHash       string    `json:"link_hash"`
	Deadline       string    `json:"deadline,omitempty"`
	Salary         string    `json:"salary"`
	EmploymentType *string   `json:"employment_type,omitempty"`
	ViewCount      int64     `json:"view_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// PostingDetail is one posting with its dimension lists.
type PostingDetail struct {
	PostingSummary
	Education       *string   `json:"education,omitempty"`
	ModifiedDate    *string   `json:"modified_date,omitempty"`
	Experiences     []string  `json:"experiences"`
	Locations       []string  `json:"locations"`
	EmploymentTypes []string  `json:"employment_types"`
	Sectors         []string  `json:"sectors"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PostingListOptions filters and paginates the posting list.
type PostingListOptions struct {
	Query    string
	Location string
	Sector   string
	Page     int
	PageSize int
}

// Stats summarizes table sizes for the stats endpoint.
type Stats struct {
	Postings        int64      `json:"postings"`
	Companies       int64      `json:"companies"`
	Sectors         int64      `json:"sectors"`
	Locations       int64      `json:"locations"`
	EmploymentTypes int64      `json:"employment_types"`
	LastPostingAt   *time.Time `json:"last_posting_at,omitempty"`
}

// ListPostingDeadlines returns every posting with a non-empty deadline
// string; the sweep decides in code which of them have expired.
func (p *Pool) ListPostingDeadlines(ctx context.Context) ([]PostingDeadline, error) {
	const q = `
SELECT posting_id, deadline
FROM job_postings
WHERE deadline <> ''
ORDER BY posting_id
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query posting deadlines: %w", err)
	}
	defer rows.Close()

	var items []PostingDeadline
	for rows.Next() {
		var item PostingDeadline
		if err := rows.Scan(&item.PostingID, &item.Deadline); err != nil {
			return nil, fmt.Errorf("scan posting deadline: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read posting deadlines: %w", err)
	}
	return items, nil
}

// ListPostingsByDeadline returns postings whose deadline equals one of the
// given sentinel strings.
func (p *Pool) ListPostingsByDeadline(ctx context.Context, deadlines ...string) ([]PostingLink, error) {
	if len(deadlines) == 0 {
		return nil, nil
	}

	placeholders := make([]string, 0, len(deadlines))
	args := make([]any, 0, len(deadlines))
	for i, deadline := range deadlines {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, deadline)
	}

	q := fmt.Sprintf(`
SELECT posting_id, link
FROM job_postings
WHERE deadline IN (%s)
ORDER BY posting_id
`, strings.Join(placeholders, ", "))

	rows, err := p.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query postings by deadline: %w", err)
	}
	defer rows.Close()

	var items []PostingLink
	for rows.Next() {
		var item PostingLink
		if err := rows.Scan(&item.PostingID, &item.Link); err != nil {
			return nil, fmt.Errorf("scan posting link: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read postings by deadline: %w", err)
	}
	return items, nil
}

// ListFingerprints loads all stored link hashes into a set.
func (p *Pool) ListFingerprints(ctx context.Context) (map[string]struct{}, error) {
	const q = `SELECT link_hash FROM job_postings`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query fingerprints: %w", err)
	}
	defer rows.Close()

	fingerprints := make(map[string]struct{})
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		fingerprints[hash] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read fingerprints: %w", err)
	}
	return fingerprints, nil
}

// DeletePosting removes one posting; link rows cascade away with it.
func (p *Pool) DeletePosting(ctx context.Context, postingID int64) error {
	const q = `DELETE FROM job_postings WHERE posting_id = $1`

	if _, err := p.Exec(ctx, q, postingID); err != nil {
		return fmt.Errorf("delete posting %d: %w", postingID, err)
	}
	return nil
}

// ListPostings returns one page of posting summaries plus the filtered total.
func (p *Pool) ListPostings(ctx context.Context, opts PostingListOptions) ([]PostingSummary, int64, error) {
	if opts.Page < 1 {
		return nil, 0, fmt.Errorf("page must be >= 1")
	}
	if opts.PageSize < 1 {
		return nil, 0, fmt.Errorf("page size must be >= 1")
	}

	where, args := buildPostingFilter(opts)

	countQuery := `
SELECT COUNT(*)
FROM job_postings jp
JOIN companies c ON c.company_id = jp.company_id
` + where

	var total int64
	if err := p.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count postings: %w", err)
	}

	listQuery := fmt.Sprintf(`
SELECT
	jp.posting_id,
	c.name,
	jp.title,
	jp.link,
	jp.link_hash,
	jp.deadline,
	jp.salary,
	et.name,
	jp.view_count,
	jp.created_at
FROM job_postings jp
JOIN companies c ON c.company_id = jp.company_id
LEFT JOIN employment_types et ON et.employment_type_id = jp.employment_type_id
%s
ORDER BY jp.created_at DESC, jp.posting_id DESC
LIMIT $%d OFFSET $%d
`, where, len(args)+1, len(args)+2)

	args = append(args, opts.PageSize, (opts.Page-1)*opts.PageSize)

	rows, err := p.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query postings: %w", err)
	}
	defer rows.Close()

	items := make([]PostingSummary, 0, opts.PageSize)
	for rows.Next() {
		var item PostingSummary
		if err := rows.Scan(
			&item.PostingID,
			&item.Company,
			&item.Title,
			&item.Link,
			&item.LinkHash,
			&item.Deadline,
			&item.Salary,
			&item.EmploymentType,
			&item.ViewCount,
			&item.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan posting summary: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("read postings: %w", err)
	}
	return items, total, nil
}

func buildPostingFilter(opts PostingListOptions) (string, []any) {
	var clauses []string
	var args []any

	if query := strings.TrimSpace(opts.Query); query != "" {
		args = append(args, "%"+query+"%")
		clauses = append(clauses, fmt.Sprintf("(jp.title ILIKE $%d OR c.name ILIKE $%d)", len(args), len(args)))
	}
	if location := strings.TrimSpace(opts.Location); location != "" {
		args = append(args, location)
		clauses = append(clauses, fmt.Sprintf(`EXISTS (
	SELECT 1 FROM job_posting_locations jpl
	JOIN locations l ON l.location_id = jpl.location_id
	WHERE jpl.posting_id = jp.posting_id AND l.name = $%d
)`, len(args)))
	}
	if sector := strings.TrimSpace(opts.Sector); sector != "" {
		args = append(args, sector)
		clauses = append(clauses, fmt.Sprintf(`EXISTS (
	SELECT 1 FROM job_posting_sectors jps
	JOIN sectors s ON s.sector_id = jps.sector_id
	WHERE jps.posting_id = jp.posting_id AND s.name = $%d
)`, len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// GetPostingDetail loads one posting by fingerprint with its dimension
// name lists.
func (p *Pool) GetPostingDetail(ctx context.Context, linkHash string) (*PostingDetail, error) {
	const q = `
SELECT
	jp.posting_id,
	c.name,
	jp.title,
	jp.link,
	jp.link_hash,
	jp.deadline,
	jp.salary,
	et.name,
	e.name,
	jp.modified_date::text,
	jp.view_count,
	jp.created_at,
	jp.updated_at
FROM job_postings jp
JOIN companies c ON c.company_id = jp.company_id
LEFT JOIN employment_types et ON et.employment_type_id = jp.employment_type_id
LEFT JOIN educations e ON e.education_id = jp.education_id
WHERE jp.link_hash = $1
`

	var detail PostingDetail
	err := p.QueryRow(ctx, q, linkHash).Scan(
		&detail.PostingID,
		&detail.Company,
		&detail.Title,
		&detail.Link,
		&detail.LinkHash,
		&detail.Deadline,
		&detail.Salary,
		&detail.EmploymentType,
		&detail.Education,
		&detail.ModifiedDate,
		&detail.ViewCount,
		&detail.CreatedAt,
		&detail.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	dimensionQueries := []struct {
		dest  *[]string
		query string
	}{
		{&detail.Experiences, `
SELECT e.name FROM job_posting_experiences jpe
JOIN experiences e ON e.experience_id = jpe.experience_id
WHERE jpe.posting_id = $1 ORDER BY e.name`},
		{&detail.Locations, `
SELECT l.name FROM job_posting_locations jpl
JOIN locations l ON l.location_id = jpl.location_id
WHERE jpl.posting_id = $1 ORDER BY l.name`},
		{&detail.EmploymentTypes, `
SELECT et.name FROM job_posting_employment_types jpet
JOIN employment_types et ON et.employment_type_id = jpet.employment_type_id
WHERE jpet.posting_id = $1 ORDER BY et.name`},
		{&detail.Sectors, `
SELECT s.name FROM job_posting_sectors jps
JOIN sectors s ON s.sector_id = jps.sector_id
WHERE jps.posting_id = $1 ORDER BY s.name`},
	}

	for _, dq := range dimensionQueries {
		names, err := p.queryNames(ctx, dq.query, detail.PostingID)
		if err != nil {
			return nil, err
		}
		*dq.dest = names
	}

	return &detail, nil
}

func (p *Pool) queryNames(ctx context.Context, query string, postingID int64) ([]string, error) {
	rows, err := p.Query(ctx, query, postingID)
	if err != nil {
		return nil, fmt.Errorf("query dimension names: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0, 4)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan dimension name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read dimension names: %w", err)
	}
	return names, nil
}

// IncrementViewCount bumps a posting's view counter.
func (p *Pool) IncrementViewCount(ctx context.Context, postingID int64) error {
	const q = `
UPDATE job_postings
SET view_count = view_count + 1
WHERE posting_id = $1
`
	if _, err := p.Exec(ctx, q, postingID); err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	return nil
}

// QueryStats collects table counts for the stats endpoint.
func (p *Pool) QueryStats(ctx context.Context) (*Stats, error) {
	const q = `
SELECT
	(SELECT COUNT(*) FROM job_postings),
	(SELECT COUNT(*) FROM companies),
	(SELECT COUNT(*) FROM sectors),
	(SELECT COUNT(*) FROM locations),
	(SELECT COUNT(*) FROM employment_types),
	(SELECT MAX(created_at) FROM job_postings)
`

	var stats Stats
	err := p.QueryRow(ctx, q).Scan(
		&stats.Postings,
		&stats.Companies,
		&stats.Sectors,
		&stats.Locations,
		&stats.EmploymentTypes,
		&stats.LastPostingAt,
	)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return &stats, nil
}
