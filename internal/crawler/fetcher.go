// Package crawler fetches paginated job listings and parses them into
// normalized records.
package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"careerfit.kr/careerfit/internal/normalize"
)

// Options configures a Fetcher. BaseURL must contain one %d placeholder
// for the page number.
type Options struct {
	BaseURL    string
	UserAgent  string
	PageDelay  time.Duration
	MaxRecords int
	Client     *http.Client
}

type Fetcher struct {
	opts   Options
	origin string
	client *http.Client
	logger zerolog.Logger
}

func NewFetcher(opts Options, logger zerolog.Logger) (*Fetcher, error) {
	if !strings.Contains(opts.BaseURL, "%d") {
		return nil, fmt.Errorf("base URL must contain a %%d page placeholder")
	}
	if opts.MaxRecords <= 0 {
		opts.MaxRecords = 10000
	}

	parsed, err := url.Parse(fmt.Sprintf(opts.BaseURL, 1))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute")
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &Fetcher{
		opts:   opts,
		origin: parsed.Scheme + "://" + parsed.Host,
		client: client,
		logger: logger,
	}, nil
}

// Crawl fetches pages 1..pages in order and returns the parsed records.
// A failed page is logged and skipped; a malformed listing is logged and
// dropped from its page. The fixed inter-page delay bounds the request
// rate, and the accumulated-record cap ends the crawl early regardless of
// the requested page count.
func (f *Fetcher) Crawl(ctx context.Context, pages int) ([]normalize.Record, error) {
	if f == nil {
		return nil, fmt.Errorf("fetcher is not initialized")
	}
	if pages < 1 {
		return nil, fmt.Errorf("page count must be >= 1")
	}

	records := make([]normalize.Record, 0, 64)
	for page := 1; page <= pages; page++ {
		if page > 1 && f.opts.PageDelay > 0 {
			select {
			case <-ctx.Done():
				return records, ctx.Err()
			case <-time.After(f.opts.PageDelay):
			}
		}

		pageRecords, err := f.fetchPage(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			f.logger.Warn().Err(err).Int("page", page).Msg("page fetch failed, skipping")
			continue
		}

		for _, record := range pageRecords {
			records = append(records, record)
			if len(records) >= f.opts.MaxRecords {
				f.logger.Warn().
					Int("max_records", f.opts.MaxRecords).
					Int("page", page).
					Msg("record cap reached, stopping crawl early")
				return records, nil
			}
		}
	}

	return records, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, page int) ([]normalize.Record, error) {
	pageURL := fmt.Sprintf(f.opts.BaseURL, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", pageURL, err)
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page %d markup: %w", page, err)
	}

	var records []normalize.Record
	doc.Find(".item_recruit").Each(func(i int, sel *goquery.Selection) {
		record, err := f.parseItem(sel)
		if err != nil {
			f.logger.Debug().Err(err).Int("page", page).Int("item", i).Msg("listing dropped")
			return
		}
		records = append(records, record)
	})

	f.logger.Info().Int("page", page).Int("records", len(records)).Msg("page fetched")
	return records, nil
}

func (f *Fetcher) parseItem(sel *goquery.Selection) (normalize.Record, error) {
	titleAnchor := sel.Find(".job_tit a")
	title := strings.TrimSpace(titleAnchor.AttrOr("title", ""))
	if title == "" {
		title = strings.TrimSpace(titleAnchor.Text())
	}

	link, _ := titleAnchor.Attr("href")
	link = strings.TrimSpace(link)
	if strings.HasPrefix(link, "/") {
		link = f.origin + link
	}

	company := strings.TrimSpace(sel.Find(".corp_name a").First().Text())
	if company == "" {
		company = strings.TrimSpace(sel.Find(".corp_name").Text())
	}

	if company == "" || title == "" || link == "" {
		return normalize.Record{}, fmt.Errorf("company, title or link missing")
	}

	// Condition spans are positional: location, experience, education,
	// employment type, salary. Trailing spans may be absent.
	conditions := sel.Find(".job_condition span").Map(func(_ int, span *goquery.Selection) string {
		return strings.TrimSpace(span.Text())
	})
	location := conditionAt(conditions, 0)
	experience := conditionAt(conditions, 1)
	education := conditionAt(conditions, 2)
	employmentType := conditionAt(conditions, 3)
	salary := conditionAt(conditions, 4)

	sectors, modifiedDate := normalize.ParseSector(sel.Find(".job_sector").Text())

	return normalize.Record{
		Company:        company,
		Title:          title,
		Link:           link,
		Locations:      normalize.SplitMulti(location),
		Experiences:    normalize.SplitMulti(experience),
		Education:      education,
		EmploymentType: employmentType,
		Salary:         normalize.Salary(salary),
		Deadline:       strings.TrimSpace(sel.Find(".job_date .date").Text()),
		Sectors:        normalize.DedupeSectors(sectors),
		ModifiedDate:   modifiedDate,
	}, nil
}

func conditionAt(conditions []string, index int) string {
	if index >= len(conditions) {
		return ""
	}
	return conditions[index]
}
