package cdr

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"pbx-api/internal/models"
)

// querier is the minimal interface needed from a pgx pool for CDR reads.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	MinPageSize     = 1
	MaxPageSize     = 1000
	DefaultPageSize = 100

	// MaxExportRows caps a single export.
	MaxExportRows = 100000
)

// Repository reads asteriskcdrdb.cdr. calldate is a naive local timestamp,
// so values read back are re-anchored in loc.
type Repository struct {
	db  querier
	loc *time.Location
}

func NewRepository(db querier, loc *time.Location) *Repository {
	if loc == nil {
		loc = time.Local
	}
	return &Repository{db: db, loc: loc}
}

func (r *Repository) Location() *time.Location { return r.loc }

// ListCalls returns one page of calls at or after since, newest first.
func (r *Repository) ListCalls(ctx context.Context, since time.Time, page, size int) (models.CallPage, error) {
	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM asteriskcdrdb.cdr WHERE calldate >= $1`, since,
	).Scan(&total); err != nil {
		return models.CallPage{}, fmt.Errorf("count calls: %w", err)
	}

	items := []models.CallRecord{}
	if offset, ok := PageOffset(page, size); ok && int64(offset) < total {
		var err error
		items, err = r.selectCalls(ctx, `
        SELECT src, dst, calldate, duration, disposition
        FROM asteriskcdrdb.cdr
        WHERE calldate >= $1
        ORDER BY calldate DESC
        LIMIT $2 OFFSET $3
    `, since, size, offset)
		if err != nil {
			return models.CallPage{}, err
		}
	}

	slog.Debug("listed calls", "since", since, "page", page, "size", size, "total", total)
	return models.CallPage{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
		Pages: PageCount(total, size),
	}, nil
}

// ExportCalls returns up to limit calls at or after since, newest first.
func (r *Repository) ExportCalls(ctx context.Context, since time.Time, limit int) ([]models.CallRecord, error) {
	if limit <= 0 || limit > MaxExportRows {
		limit = MaxExportRows
	}
	return r.selectCalls(ctx, `
        SELECT src, dst, calldate, duration, disposition
        FROM asteriskcdrdb.cdr
        WHERE calldate >= $1
        ORDER BY calldate DESC
        LIMIT $2
    `, since, limit)
}

func (r *Repository) selectCalls(ctx context.Context, query string, args ...any) ([]models.CallRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	items := []models.CallRecord{}
	for rows.Next() {
		var c models.CallRecord
		if err := rows.Scan(&c.Src, &c.Dst, &c.CallDate, &c.Duration, &c.Disposition); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		c.CallDate = r.wallClock(c.CallDate)
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	return items, nil
}

// Summary aggregates the calls at or after since.
type Summary struct {
	Total       int64
	AvgDuration float64
	Answered    int64
}

func (r *Repository) Summarize(ctx context.Context, since time.Time) (Summary, error) {
	var s Summary
	err := r.db.QueryRow(ctx, `
        SELECT COUNT(*),
               COALESCE(AVG(duration), 0)::float8,
               COALESCE(SUM(CASE WHEN disposition = 'ANSWERED' THEN 1 ELSE 0 END), 0)
        FROM asteriskcdrdb.cdr
        WHERE calldate >= $1
    `, since).Scan(&s.Total, &s.AvgDuration, &s.Answered)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize calls: %w", err)
	}
	return s, nil
}

// AnswerRate is answered/total as a percentage with one decimal, 0 without calls.
func (s Summary) AnswerRate() float64 {
	if s.Total <= 0 {
		return 0
	}
	return Round1(float64(s.Answered) / float64(s.Total) * 100)
}

func (r *Repository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM asteriskcdrdb.cdr WHERE calldate >= $1`, since,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count calls: %w", err)
	}
	return n, nil
}

func (r *Repository) StatusBreakdown(ctx context.Context, since time.Time) (models.CallStatusBreakdown, error) {
	var b models.CallStatusBreakdown
	err := r.db.QueryRow(ctx, `
        SELECT COALESCE(SUM(CASE WHEN disposition = 'ANSWERED' THEN 1 ELSE 0 END), 0),
               COALESCE(SUM(CASE WHEN disposition = 'NO ANSWER' THEN 1 ELSE 0 END), 0),
               COALESCE(SUM(CASE WHEN disposition = 'BUSY' THEN 1 ELSE 0 END), 0),
               COALESCE(SUM(CASE WHEN disposition = 'FAILED' THEN 1 ELSE 0 END), 0)
        FROM asteriskcdrdb.cdr
        WHERE calldate >= $1
    `, since).Scan(&b.Answered, &b.NoAnswer, &b.Busy, &b.Failed)
	if err != nil {
		return models.CallStatusBreakdown{}, fmt.Errorf("call status breakdown: %w", err)
	}
	return b, nil
}

func (r *Repository) DailyTrends(ctx context.Context, since time.Time) ([]models.DailyTrend, error) {
	rows, err := r.db.Query(ctx, `
        SELECT to_char(calldate, 'YYYY-MM-DD') AS day,
               COUNT(*),
               COALESCE(SUM(CASE WHEN disposition = 'ANSWERED' THEN 1 ELSE 0 END), 0)
        FROM asteriskcdrdb.cdr
        WHERE calldate >= $1
        GROUP BY day
        ORDER BY day
    `, since)
	if err != nil {
		return nil, fmt.Errorf("daily trends: %w", err)
	}
	defer rows.Close()

	out := []models.DailyTrend{}
	for rows.Next() {
		var d models.DailyTrend
		if err := rows.Scan(&d.Date, &d.Total, &d.Answered); err != nil {
			return nil, fmt.Errorf("scan daily trend: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// TopSources ranks calling numbers by call count.
func (r *Repository) TopSources(ctx context.Context, since time.Time, limit int) ([]models.PartyCount, error) {
	return r.topParties(ctx, `
        SELECT src, COUNT(*) AS calls
        FROM asteriskcdrdb.cdr
        WHERE calldate >= $1 AND src <> ''
        GROUP BY src
        ORDER BY calls DESC, src
        LIMIT $2
    `, since, limit)
}

// TopDestinations ranks dialled numbers by call count.
func (r *Repository) TopDestinations(ctx context.Context, since time.Time, limit int) ([]models.PartyCount, error) {
	return r.topParties(ctx, `
        SELECT dst, COUNT(*) AS calls
        FROM asteriskcdrdb.cdr
        WHERE calldate >= $1 AND dst <> ''
        GROUP BY dst
        ORDER BY calls DESC, dst
        LIMIT $2
    `, since, limit)
}

func (r *Repository) topParties(ctx context.Context, query string, since time.Time, limit int) ([]models.PartyCount, error) {
	rows, err := r.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("top parties: %w", err)
	}
	defer rows.Close()

	out := []models.PartyCount{}
	for rows.Next() {
		var p models.PartyCount
		if err := rows.Scan(&p.Number, &p.Calls); err != nil {
			return nil, fmt.Errorf("scan party: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// wallClock keeps the wall time pgx decoded for a timestamp column and
// attaches the report location to it.
func (r *Repository) wallClock(t time.Time) time.Time {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, mo, d, h, mi, s, t.Nanosecond(), r.loc)
}

// Round1 rounds half away from zero to one decimal.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
