// Package telephony builds the read-only PBX reports: extension registration
// status, trunks, inbound routes, IVRs and the dashboard figures.
package telephony

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"

	"pbx-api/internal/apperr"
	"pbx-api/internal/cdr"
	"pbx-api/internal/models"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// IPv4Pattern matches a dotted-quad host value. It is shared with the SQL
// that counts online extensions so both agree.
const IPv4Pattern = `^[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}$`

const dynamicHost = "dynamic"

// TopPartiesLimit bounds the ranked lists of the advanced dashboard.
const TopPartiesLimit = 10

var ipv4Host = regexp.MustCompile(IPv4Pattern)

var ErrRouteNotFound = fmt.Errorf("incoming route %w", apperr.ErrNotFound)

type Service struct {
	db  querier
	cdr *cdr.Repository
	now func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now; tests use it to pin report windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db querier, calls *cdr.Repository, opts ...Option) *Service {
	s := &Service{db: db, cdr: calls, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now is the current time in the report location.
func (s *Service) Now() time.Time {
	return s.now().In(s.cdr.Location())
}

// HostStatus classifies a sip "host" value; an empty value means the
// extension has no host row.
func HostStatus(host string) models.ExtensionStatus {
	if host == dynamicHost || ipv4Host.MatchString(host) {
		return models.ExtensionOnline
	}
	return models.ExtensionOffline
}

func (s *Service) Extensions(ctx context.Context) ([]models.Extension, error) {
	rows, err := s.db.Query(ctx, `
        SELECT u.extension, COALESCE(u.name, ''), COALESCE(h.data, '')
        FROM asterisk.users u
        LEFT JOIN asterisk.sip h
          ON u.extension = h.id AND h.keyword = 'host'
        ORDER BY u.extension
    `)
	if err != nil {
		return nil, fmt.Errorf("query extensions: %w", err)
	}
	defer rows.Close()

	out := []models.Extension{}
	for rows.Next() {
		var (
			e    models.Extension
			host string
		)
		if err := rows.Scan(&e.Extension, &e.Name, &host); err != nil {
			return nil, fmt.Errorf("scan extension: %w", err)
		}
		e.Status = HostStatus(host)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Service) ActiveExtensions(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM asterisk.users u
        JOIN asterisk.sip h
          ON u.extension = h.id AND h.keyword = 'host'
        WHERE h.data = $1 OR h.data ~ $2
    `, dynamicHost, IPv4Pattern).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active extensions: %w", err)
	}
	return n, nil
}

func (s *Service) Trunks(ctx context.Context) ([]models.Trunk, error) {
	rows, err := s.db.Query(ctx, `
        SELECT name, tech, COALESCE(channelid, '')
        FROM asterisk.trunks
        ORDER BY name
    `)
	if err != nil {
		return nil, fmt.Errorf("query trunks: %w", err)
	}
	defer rows.Close()

	out := []models.Trunk{}
	for rows.Next() {
		var t models.Trunk
		if err := rows.Scan(&t.Name, &t.Tech, &t.ChannelID); err != nil {
			return nil, fmt.Errorf("scan trunk: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const incomingColumns = `
        SELECT extension, COALESCE(cidnum, ''), COALESCE(description, ''), COALESCE(destination, '')
        FROM asterisk.incoming`

func (s *Service) IncomingRoutes(ctx context.Context) ([]models.IncomingRoute, error) {
	rows, err := s.db.Query(ctx, incomingColumns+` ORDER BY extension`)
	if err != nil {
		return nil, fmt.Errorf("query incoming routes: %w", err)
	}
	defer rows.Close()

	out := []models.IncomingRoute{}
	for rows.Next() {
		var r models.IncomingRoute
		if err := rows.Scan(&r.Extension, &r.CIDNum, &r.Description, &r.Destination); err != nil {
			return nil, fmt.Errorf("scan incoming route: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// IncomingRoute looks a route up by its DID number.
func (s *Service) IncomingRoute(ctx context.Context, number string) (models.IncomingRoute, error) {
	var r models.IncomingRoute
	err := s.db.QueryRow(ctx, incomingColumns+` WHERE extension = $1 LIMIT 1`, number).
		Scan(&r.Extension, &r.CIDNum, &r.Description, &r.Destination)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.IncomingRoute{}, ErrRouteNotFound
		}
		return models.IncomingRoute{}, fmt.Errorf("get incoming route: %w", err)
	}
	return r, nil
}

func (s *Service) IVRs(ctx context.Context) ([]models.IVR, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, COALESCE(name, ''), COALESCE(description, '')
        FROM asterisk.ivr_details
        ORDER BY name
    `)
	if err != nil {
		return nil, fmt.Errorf("query ivrs: %w", err)
	}
	defer rows.Close()

	out := []models.IVR{}
	for rows.Next() {
		var v models.IVR
		if err := rows.Scan(&v.ID, &v.Name, &v.Description); err != nil {
			return nil, fmt.Errorf("scan ivr: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
