// Package queues manages the asterisk.queue_names table: named call queues
// keyed by an auto-assigned device id.
package queues

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"pbx-api/internal/apperr"
	"pbx-api/internal/models"
)

// store is the minimal interface needed from a pgx pool.
type store interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

var (
	ErrNotFound      = fmt.Errorf("queue %w", apperr.ErrNotFound)
	ErrDuplicateName = fmt.Errorf("%w: queue name already in use", apperr.ErrConflict)
)

// allocLockKey identifies the advisory lock that serializes device
// allocation and renames across every instance sharing the database.
const allocLockKey int64 = 0x7062785f71756575

const (
	// FirstDevice is assigned when the registry is empty.
	FirstDevice = "1"
	// FallbackDevice is assigned when rows exist but none has a numeric device.
	FallbackDevice = "100"
)

const uniqueViolation = "23505"

type Registry struct {
	db store
}

func NewRegistry(db store) *Registry {
	return &Registry{db: db}
}

func (r *Registry) List(ctx context.Context) ([]models.QueueName, error) {
	rows, err := r.db.Query(ctx, `SELECT device, queue FROM asterisk.queue_names ORDER BY device`)
	if err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}
	defer rows.Close()

	out := []models.QueueName{}
	for rows.Next() {
		var q models.QueueName
		if err := rows.Scan(&q.Device, &q.Queue); err != nil {
			return nil, fmt.Errorf("scan queue: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}
	return out, nil
}

func (r *Registry) Get(ctx context.Context, device string) (models.QueueName, error) {
	var q models.QueueName
	err := r.db.QueryRow(ctx, `SELECT device, queue FROM asterisk.queue_names WHERE device = $1`, device).
		Scan(&q.Device, &q.Queue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.QueueName{}, ErrNotFound
		}
		return models.QueueName{}, fmt.Errorf("get queue: %w", err)
	}
	return q, nil
}

// Create inserts a queue under the next free device id. The duplicate check,
// the device scan and the insert run under one transaction holding the
// allocation lock, so concurrent creates cannot pick the same device.
func (r *Registry) Create(ctx context.Context, name string) (models.QueueName, error) {
	var created models.QueueName
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockAllocation(ctx, tx); err != nil {
			return err
		}

		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM asterisk.queue_names WHERE queue = $1)`, name,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check queue name: %w", err)
		}
		if exists {
			slog.Info("duplicate queue name", "queue", name)
			return ErrDuplicateName
		}

		devices, err := scanDevices(ctx, tx)
		if err != nil {
			return err
		}
		device := NextDevice(devices)

		if _, err := tx.Exec(ctx,
			`INSERT INTO asterisk.queue_names (device, queue) VALUES ($1, $2)`, device, name,
		); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateName
			}
			return fmt.Errorf("insert queue: %w", err)
		}

		created = models.QueueName{Device: device, Queue: name}
		return nil
	})
	if err != nil {
		return models.QueueName{}, err
	}

	slog.Info("queue created", "device", created.Device, "queue", created.Queue)
	return created, nil
}

// Update renames the queue bound to device. The device itself never changes.
func (r *Registry) Update(ctx context.Context, device, name string) (models.QueueName, error) {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockAllocation(ctx, tx); err != nil {
			return err
		}

		var current string
		err := tx.QueryRow(ctx,
			`SELECT queue FROM asterisk.queue_names WHERE device = $1 FOR UPDATE`, device,
		).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lookup queue: %w", err)
		}

		var taken bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM asterisk.queue_names WHERE device <> $1 AND queue = $2)`, device, name,
		).Scan(&taken); err != nil {
			return fmt.Errorf("check queue name: %w", err)
		}
		if taken {
			slog.Info("queue rename collides", "device", device, "queue", name)
			return ErrDuplicateName
		}

		if _, err := tx.Exec(ctx,
			`UPDATE asterisk.queue_names SET queue = $2 WHERE device = $1`, device, name,
		); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateName
			}
			return fmt.Errorf("update queue: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.QueueName{}, err
	}

	slog.Info("queue renamed", "device", device, "queue", name)
	return models.QueueName{Device: device, Queue: name}, nil
}

func (r *Registry) Delete(ctx context.Context, device string) error {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM asterisk.queue_names WHERE device = $1`, device)
		if err != nil {
			return fmt.Errorf("delete queue: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("queue deleted", "device", device)
	return nil
}

// NextDevice picks the device id for a new queue from the existing ones:
// one past the largest numeric id, FallbackDevice when no id is numeric, and
// FirstDevice when there are none. Ids compare as arbitrary-precision
// numbers, so "10" beats "9" and ids past int64 still count.
func NextDevice(devices []string) string {
	var (
		highest *big.Int
		seen    bool
	)
	for _, d := range devices {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		seen = true
		n, ok := new(big.Int).SetString(d, 10)
		if !ok {
			continue
		}
		if highest == nil || n.Cmp(highest) > 0 {
			highest = n
		}
	}

	switch {
	case !seen:
		return FirstDevice
	case highest == nil:
		return FallbackDevice
	default:
		return highest.Add(highest, big.NewInt(1)).String()
	}
}

func (r *Registry) inTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				slog.Error("failed to rollback queue transaction", "error", rbErr)
			}
			return
		}

		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("commit tx: %w", commitErr)
		}
	}()

	return fn(tx)
}

func lockAllocation(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, allocLockKey); err != nil {
		return fmt.Errorf("lock queue registry: %w", err)
	}
	return nil
}

func scanDevices(ctx context.Context, tx pgx.Tx) ([]string, error) {
	rows, err := tx.Query(ctx, `SELECT device FROM asterisk.queue_names`)
	if err != nil {
		return nil, fmt.Errorf("scan devices: %w", err)
	}
	defer rows.Close()

	var devices []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
