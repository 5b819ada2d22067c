package table

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScraper_Run_StopsWhenNextMissing(t *testing.T) {
	page2 := append(goodRows("p2", 10), shortRow(8))
	page2 = append(page2, goodRows("p2b", 9)...)

	h := newFakeHandle(
		pageFixture{indicator: "Page 1 of 3", rows: goodRows("p1", 20), next: true, overlay: true}.html(),
		pageFixture{indicator: "Page 2 of 3", rows: page2, next: false}.html(),
		pageFixture{indicator: "Page 3 of 3", rows: goodRows("p3", 20)}.html(),
	)

	s, err := New(h, testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := s.Run(context.Background(), "https://example.com/stats")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(res.Records) != 39 {
		t.Errorf("expected 39 records, got %d", len(res.Records))
	}
	if res.StopReason != StopAdvanceFailed {
		t.Errorf("StopReason = %q, want %q", res.StopReason, StopAdvanceFailed)
	}
	if !res.Partial() {
		t.Error("expected partial result")
	}
	if res.TotalPages != 3 || res.PagesScraped != 2 {
		t.Errorf("pages = %d/%d, want 2/3", res.PagesScraped, res.TotalPages)
	}
	if res.SkippedRows != 1 {
		t.Errorf("SkippedRows = %d, want 1", res.SkippedRows)
	}
	if !res.OverlayDismissed {
		t.Error("expected overlay to be dismissed")
	}
	if h.maxVisited != 1 {
		t.Errorf("visited page index %d, page 3 must never load", h.maxVisited)
	}
}

func TestScraper_Run_PreservesPageThenRowOrder(t *testing.T) {
	h := newFakeHandle(
		pageFixture{indicator: "1 of 3", rows: []string{goodRow("Zed"), goodRow("Amy")}, next: true}.html(),
		pageFixture{indicator: "2 of 3", rows: []string{goodRow("Mo"), goodRow("Bo")}, next: true}.html(),
		pageFixture{indicator: "3 of 3", rows: []string{goodRow("Al")}}.html(),
	)

	s, err := New(h, testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := s.Run(context.Background(), "https://example.com/stats")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"Zed", "Amy", "Mo", "Bo", "Al"}
	if diff := cmp.Diff(want, names(res.Records)); diff != "" {
		t.Errorf("record order mismatch (-want +got):\n%s", diff)
	}
	if res.Partial() {
		t.Errorf("expected complete run, got stop reason %q", res.StopReason)
	}
}

func TestScraper_Run_NoIndicatorProcessesOnePage(t *testing.T) {
	h := newFakeHandle(
		pageFixture{rows: goodRows("p1", 5), next: true}.html(),
		pageFixture{rows: goodRows("p2", 5)}.html(),
	)

	s, err := New(h, testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := s.Run(context.Background(), "https://example.com/stats")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.TotalPages != 1 || res.PagesScraped != 1 {
		t.Errorf("pages = %d/%d, want 1/1", res.PagesScraped, res.TotalPages)
	}
	if len(res.Records) != 5 {
		t.Errorf("expected 5 records, got %d", len(res.Records))
	}
	if len(h.clicks) != 0 {
		t.Errorf("expected no clicks, got %v", h.clicks)
	}
}

func TestScraper_Run_StalledPageYieldsNoRows(t *testing.T) {
	h := newFakeHandle(
		pageFixture{indicator: "1 of 3", rows: goodRows("p1", 3), next: true}.html(),
		pageFixture{indicator: "2 of 3", next: true}.html(),
		pageFixture{indicator: "3 of 3", rows: goodRows("p3", 2)}.html(),
	)

	s, err := New(h, testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := s.Run(context.Background(), "https://example.com/stats")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(res.Records) != 5 {
		t.Errorf("expected 5 records, got %d", len(res.Records))
	}
	if diff := cmp.Diff([]int{2}, res.StalledPages); diff != "" {
		t.Errorf("stalled pages mismatch (-want +got):\n%s", diff)
	}
	if res.PagesScraped != 3 {
		t.Errorf("PagesScraped = %d, want 3", res.PagesScraped)
	}
}

func TestScraper_Run_StopsOnRepeatedPage(t *testing.T) {
	h := newFakeHandle(
		pageFixture{indicator: "1 of 3", rows: goodRows("p1", 4), next: true}.html(),
		pageFixture{indicator: "2 of 3", rows: goodRows("p2", 4), next: true}.html(),
	)
	h.stuck = true

	s, err := New(h, testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := s.Run(context.Background(), "https://example.com/stats")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.StopReason != StopDuplicatePage {
		t.Errorf("StopReason = %q, want %q", res.StopReason, StopDuplicatePage)
	}
	if len(res.Records) != 4 {
		t.Errorf("expected only page 1 records, got %d", len(res.Records))
	}
}

func TestScraper_Run_MaxPages(t *testing.T) {
	h := newFakeHandle(
		pageFixture{indicator: "1 of 3", rows: goodRows("p1", 2), next: true}.html(),
		pageFixture{indicator: "2 of 3", rows: goodRows("p2", 2), next: true}.html(),
		pageFixture{indicator: "3 of 3", rows: goodRows("p3", 2)}.html(),
	)
	cfg := testConfig()
	cfg.MaxPages = 2

	s, err := New(h, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := s.Run(context.Background(), "https://example.com/stats")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.TotalPages != 2 || len(res.Records) != 4 {
		t.Errorf("got %d pages / %d records, want 2 / 4", res.TotalPages, len(res.Records))
	}
	if h.maxVisited != 1 {
		t.Errorf("visited page index %d, want 1", h.maxVisited)
	}
}

func TestScraper_Run_PageHook(t *testing.T) {
	h := newFakeHandle(
		pageFixture{indicator: "1 of 2", rows: goodRows("p1", 3), next: true}.html(),
		pageFixture{indicator: "2 of 2", rows: goodRows("p2", 1)}.html(),
	)

	var seen []string
	s, err := New(h, testConfig(), WithPageHook(func(page int, records []Record) {
		seen = append(seen, fmt.Sprintf("%d:%d", page, len(records)))
	}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.Run(context.Background(), "https://example.com/stats"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if diff := cmp.Diff([]string{"1:3", "2:1"}, seen); diff != "" {
		t.Errorf("hook calls mismatch (-want +got):\n%s", diff)
	}
}

func TestScraper_Run_NavigateError(t *testing.T) {
	h := newFakeHandle(pageFixture{rows: goodRows("p1", 1)}.html())
	h.navigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")

	s, err := New(h, testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := s.Run(context.Background(), "https://nowhere.invalid")
	if !errors.Is(err, ErrNavigate) {
		t.Fatalf("expected ErrNavigate, got %v", err)
	}
	if len(res.Records) != 0 {
		t.Errorf("expected no records, got %d", len(res.Records))
	}
}

func TestScraper_Run_CanceledContext(t *testing.T) {
	h := newFakeHandle(pageFixture{indicator: "1 of 2", rows: goodRows("p1", 1), next: true}.html())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := New(h, testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := s.Run(ctx, "https://example.com/stats")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.StopReason != StopCanceled {
		t.Errorf("StopReason = %q, want %q", res.StopReason, StopCanceled)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, testConfig()); err == nil {
		t.Error("expected error for nil handle")
	}

	cfg := testConfig()
	cfg.RowSelector = ""
	if _, err := New(newFakeHandle(), cfg); err == nil {
		t.Error("expected error for empty row selector")
	}
}
