package cdr

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"pbx-api/internal/apperr"
)

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"today", "week", "month", "year"} {
		p, err := ParsePeriod(in)
		if err != nil || string(p) != in {
			t.Errorf("ParsePeriod(%q) = %q, %v", in, p, err)
		}
	}
	if p, err := ParsePeriod(""); err != nil || p != PeriodMonth {
		t.Errorf("empty period = %q, %v; want month", p, err)
	}
	if _, err := ParsePeriod("decade"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestPeriodSince(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("PBX", -5*3600)
	now := time.Date(2024, time.March, 15, 14, 30, 45, 0, loc)

	tests := []struct {
		period Period
		want   time.Time
	}{
		{PeriodToday, time.Date(2024, time.March, 15, 0, 0, 0, 0, loc)},
		{PeriodWeek, time.Date(2024, time.March, 8, 14, 30, 45, 0, loc)},
		{PeriodMonth, time.Date(2024, time.February, 14, 14, 30, 45, 0, loc)},
		{PeriodYear, time.Date(2023, time.March, 16, 14, 30, 45, 0, loc)},
	}

	for _, tc := range tests {
		if got := tc.period.Since(now); !got.Equal(tc.want) {
			t.Errorf("%s: since = %v, want %v", tc.period, got, tc.want)
		}
	}

	if got := StartOfMonth(now); !got.Equal(time.Date(2024, time.March, 1, 0, 0, 0, 0, loc)) {
		t.Errorf("start of month = %v", got)
	}
}

func TestPageCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		total int64
		size  int
		want  int64
	}{
		{0, 100, 0},
		{1, 100, 1},
		{100, 100, 1},
		{101, 100, 2},
		{2500, 1000, 3},
		{7, 1, 7},
	}
	for _, tc := range tests {
		if got := PageCount(tc.total, tc.size); got != tc.want {
			t.Errorf("PageCount(%d, %d) = %d, want %d", tc.total, tc.size, got, tc.want)
		}
	}
}

func TestAnswerRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		s    Summary
		want float64
	}{
		{Summary{}, 0},
		{Summary{Total: 3, Answered: 2}, 66.7},
		{Summary{Total: 8, Answered: 8}, 100},
		{Summary{Total: 3, Answered: 0}, 0},
	}
	for _, tc := range tests {
		if got := tc.s.AnswerRate(); got != tc.want {
			t.Errorf("AnswerRate(%+v) = %v, want %v", tc.s, got, tc.want)
		}
	}
}

func TestListCalls(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	loc := time.FixedZone("PBX", 2*3600)
	since := time.Date(2024, time.May, 1, 0, 0, 0, 0, loc)
	stored := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM asteriskcdrdb\.cdr`).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(5)))
	mock.ExpectQuery(`SELECT src, dst, calldate, duration, disposition`).
		WithArgs(since, 2, 2).
		WillReturnRows(pgxmock.NewRows([]string{"src", "dst", "calldate", "duration", "disposition"}).
			AddRow("1001", "2002", stored, 60, "ANSWERED").
			AddRow("1003", "2002", stored, 0, "NO ANSWER"))

	page, err := NewRepository(mock, loc).ListCalls(context.Background(), since, 2, 2)
	if err != nil {
		t.Fatalf("list calls: %v", err)
	}

	if page.Total != 5 || page.Pages != 3 || page.Page != 2 || page.Size != 2 {
		t.Fatalf("unexpected page meta %+v", page)
	}
	if len(page.Items) > page.Size {
		t.Fatalf("page has %d items, size %d", len(page.Items), page.Size)
	}
	got := page.Items[0].CallDate
	if got.Location() != loc || got.Hour() != 10 {
		t.Fatalf("calldate should keep wall clock in report zone, got %v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPageOffset(t *testing.T) {
	tests := []struct {
		page, size int
		want       int
		ok         bool
	}{
		{1, 100, 0, true},
		{3, 10, 20, true},
		{math.MaxInt, 1, math.MaxInt - 1, true},
		{math.MaxInt, 1000, 0, false},
		{math.MaxInt/1000 + 2, 1000, 0, false},
		{0, 10, 0, false},
	}
	for _, tt := range tests {
		got, ok := PageOffset(tt.page, tt.size)
		if got != tt.want || ok != tt.ok {
			t.Errorf("PageOffset(%d, %d) = %d, %v; want %d, %v", tt.page, tt.size, got, ok, tt.want, tt.ok)
		}
	}
}

func TestListCallsPastLastPage(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	since := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	repo := NewRepository(mock, time.UTC)

	// Only the count runs; the page lies past the last row.
	for _, pg := range []int{4, math.MaxInt} {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM asteriskcdrdb\.cdr`).
			WithArgs(since).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(5)))

		page, err := repo.ListCalls(context.Background(), since, pg, 2)
		if err != nil {
			t.Fatalf("page %d: %v", pg, err)
		}
		if page.Items == nil || len(page.Items) != 0 || page.Total != 5 || page.Pages != 3 || page.Page != pg {
			t.Fatalf("page %d: unexpected result %+v", pg, page)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListCallsQueryError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM asteriskcdrdb\.cdr`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(errors.New("relation does not exist"))

	if _, err := NewRepository(mock, time.UTC).ListCalls(context.Background(), time.Now(), 1, 100); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAggregates(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\),\s+COALESCE\(AVG`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"count", "avg", "answered"}).AddRow(int64(4), 37.25, int64(3)))
	mock.ExpectQuery(`disposition = 'NO ANSWER'`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"answered", "no_answer", "busy", "failed"}).
			AddRow(int64(3), int64(1), int64(0), int64(0)))
	mock.ExpectQuery(`to_char\(calldate`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"day", "count", "answered"}).
			AddRow("2024-05-01", int64(3), int64(2)).
			AddRow("2024-05-02", int64(1), int64(1)))
	mock.ExpectQuery(`SELECT src, COUNT\(\*\) AS calls`).
		WithArgs(pgxmock.AnyArg(), 10).
		WillReturnRows(pgxmock.NewRows([]string{"src", "calls"}).AddRow("1001", int64(3)))
	mock.ExpectQuery(`SELECT dst, COUNT\(\*\) AS calls`).
		WithArgs(pgxmock.AnyArg(), 10).
		WillReturnRows(pgxmock.NewRows([]string{"dst", "calls"}))

	repo := NewRepository(mock, time.UTC)
	ctx := context.Background()
	since := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

	s, err := repo.Summarize(ctx, since)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.Total != 4 || s.Answered != 3 || s.AnswerRate() != 75 {
		t.Fatalf("summary %+v rate %v", s, s.AnswerRate())
	}

	b, err := repo.StatusBreakdown(ctx, since)
	if err != nil || b.Answered != 3 || b.NoAnswer != 1 {
		t.Fatalf("breakdown %+v, %v", b, err)
	}

	trends, err := repo.DailyTrends(ctx, since)
	if err != nil || len(trends) != 2 || trends[0].Date != "2024-05-01" {
		t.Fatalf("trends %+v, %v", trends, err)
	}

	src, err := repo.TopSources(ctx, since, 10)
	if err != nil || len(src) != 1 || src[0].Number != "1001" {
		t.Fatalf("top sources %+v, %v", src, err)
	}

	dst, err := repo.TopDestinations(ctx, since, 10)
	if err != nil || dst == nil || len(dst) != 0 {
		t.Fatalf("top destinations should be empty, got %+v, %v", dst, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
