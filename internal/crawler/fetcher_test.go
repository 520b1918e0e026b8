package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

const listingPage = `<!DOCTYPE html>
<html><body>
<div class="item_recruit">
	<div class="area_corp"><strong class="corp_name"><a href="/company/1">테크컴퍼니</a></strong></div>
	<h2 class="job_tit"><a href="/zf_user/jobs/relay/view?rec_idx=101" title="백엔드 개발자 모집">백엔드 개발자...</a></h2>
	<div class="job_condition">
		<span>서울 · 경기</span>
		<span>경력무관</span>
		<span>대졸이상</span>
		<span>정규직</span>
	</div>
	<div class="job_sector">백엔드/서버개발, 웹개발 외 수정일 24/05/01</div>
	<div class="job_date"><span class="date">~ 05/31</span></div>
</div>
<div class="item_recruit">
	<div class="area_corp"><strong class="corp_name"><a href="/company/2">다른회사</a></strong></div>
	<h2 class="job_tit"><a href="/zf_user/jobs/relay/view?rec_idx=102" title="프론트엔드 개발자">프론트엔드 개발자</a></h2>
	<div class="job_condition">
		<span>인천</span>
		<span>신입</span>
	</div>
	<div class="job_sector">프론트엔드</div>
	<div class="job_date"><span class="date">상시채용</span></div>
</div>
<div class="item_recruit">
	<h2 class="job_tit"><a title="회사 이름이 빠진 공고"></a></h2>
</div>
</body></html>`

func newTestFetcher(t *testing.T, baseURL string, maxRecords int) *Fetcher {
	t.Helper()

	fetcher, err := NewFetcher(Options{
		BaseURL:    baseURL,
		UserAgent:  "careerfit-test",
		MaxRecords: maxRecords,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	return fetcher
}

func TestCrawlParsesListings(t *testing.T) {
	t.Parallel()

	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, listingPage)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL+"/jobs?page=%d", 0)
	records, err := fetcher.Crawl(context.Background(), 1)
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}

	if gotUserAgent != "careerfit-test" {
		t.Fatalf("unexpected user agent: %q", gotUserAgent)
	}
	// The third listing has no company or link and must be dropped.
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Company != "테크컴퍼니" {
		t.Fatalf("unexpected company: %q", first.Company)
	}
	if first.Title != "백엔드 개발자 모집" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if first.Link != server.URL+"/zf_user/jobs/relay/view?rec_idx=101" {
		t.Fatalf("relative link not resolved: %q", first.Link)
	}
	if !reflect.DeepEqual(first.Locations, []string{"서울", "경기"}) {
		t.Fatalf("unexpected locations: %v", first.Locations)
	}
	if !reflect.DeepEqual(first.Experiences, []string{"경력무관"}) {
		t.Fatalf("unexpected experiences: %v", first.Experiences)
	}
	if first.Education != "대졸이상" {
		t.Fatalf("unexpected education: %q", first.Education)
	}
	if first.EmploymentType != "정규직" {
		t.Fatalf("unexpected employment type: %q", first.EmploymentType)
	}
	if first.Salary != "추후 협의" {
		t.Fatalf("absent salary should default to sentinel, got %q", first.Salary)
	}
	if first.Deadline != "~ 05/31" {
		t.Fatalf("unexpected deadline: %q", first.Deadline)
	}
	if !reflect.DeepEqual(first.Sectors, []string{"백엔드/서버개발", "웹개발"}) {
		t.Fatalf("unexpected sectors: %v", first.Sectors)
	}
	if first.ModifiedDate != "2024-05-01" {
		t.Fatalf("unexpected modified date: %q", first.ModifiedDate)
	}

	second := records[1]
	if second.Deadline != "상시채용" {
		t.Fatalf("unexpected deadline: %q", second.Deadline)
	}
	if second.EmploymentType != "" {
		t.Fatalf("missing condition span should be empty, got %q", second.EmploymentType)
	}
}

func TestCrawlSkipsFailedPages(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, listingPage)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL+"/jobs?page=%d", 0)
	records, err := fetcher.Crawl(context.Background(), 3)
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected pages 1 and 3 to contribute 4 records, got %d", len(records))
	}
}

func TestCrawlStopsAtRecordCap(t *testing.T) {
	t.Parallel()

	pagesServed := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pagesServed++
		fmt.Fprint(w, listingPage)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL+"/jobs?page=%d", 3)
	records, err := fetcher.Crawl(context.Background(), 10)
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected crawl to stop at the cap, got %d records", len(records))
	}
	if pagesServed != 2 {
		t.Fatalf("expected the crawl to end on page 2, served %d pages", pagesServed)
	}
}

func TestNewFetcherRejectsBadBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewFetcher(Options{BaseURL: "https://example.com/jobs"}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for base URL without page placeholder")
	}
	if _, err := NewFetcher(Options{BaseURL: "/jobs?page=%d"}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for relative base URL")
	}
}
