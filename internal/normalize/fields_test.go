package normalize

import (
	"reflect"
	"testing"
)

func TestSplitMulti(t *testing.T) {
	t.Parallel()

	got := SplitMulti("서울 · 경기, 인천")
	want := []string{"서울", "경기", "인천"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected tokens: %v", got)
	}

	if got := SplitMulti("  "); got != nil {
		t.Fatalf("blank input should yield nil, got %v", got)
	}

	// Order is preserved and repeated values are kept.
	got = SplitMulti("경력무관, 신입, 경력무관")
	want = []string{"경력무관", "신입", "경력무관"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected tokens: %v", got)
	}
}

func TestParseSectorExtractsModifiedDate(t *testing.T) {
	t.Parallel()

	sectors, modified := ParseSector("영업,마케팅 외 수정일 24/05/01")
	if modified != "2024-05-01" {
		t.Fatalf("unexpected modified date: %q", modified)
	}
	deduped := DedupeSectors(sectors)
	want := []string{"영업", "마케팅"}
	if !reflect.DeepEqual(deduped, want) {
		t.Fatalf("unexpected sectors: %v", deduped)
	}
}

func TestParseSectorRegisteredMarker(t *testing.T) {
	t.Parallel()

	sectors, modified := ParseSector("백엔드/서버개발, 웹개발 등록일 23/11/30")
	if modified != "2023-11-30" {
		t.Fatalf("unexpected modified date: %q", modified)
	}
	want := []string{"백엔드/서버개발", "웹개발"}
	if !reflect.DeepEqual(sectors, want) {
		t.Fatalf("unexpected sectors: %v", sectors)
	}
}

func TestParseSectorWithoutMarker(t *testing.T) {
	t.Parallel()

	sectors, modified := ParseSector("앱개발, 외")
	if modified != "" {
		t.Fatalf("expected no modified date, got %q", modified)
	}
	want := []string{"앱개발"}
	if !reflect.DeepEqual(sectors, want) {
		t.Fatalf("literal 외 token must be dropped, got %v", sectors)
	}
}

func TestDedupeSectorsPreservesFirstSeenOrder(t *testing.T) {
	t.Parallel()

	got := DedupeSectors([]string{"영업 외", "마케팅", "영업", "마케팅"})
	want := []string{"영업", "마케팅"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected deduped sectors: %v", got)
	}
}

func TestSalaryDefaultsToNegotiable(t *testing.T) {
	t.Parallel()

	if got := Salary("  "); got != SalaryNegotiable {
		t.Fatalf("blank salary should default to sentinel, got %q", got)
	}
	if got := Salary("3,000만원 이상"); got != "3,000만원 이상" {
		t.Fatalf("salary text must pass through, got %q", got)
	}
}
