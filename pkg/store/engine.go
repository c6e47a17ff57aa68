// Package store provides the two record readers the reconciliation
// tool compares: the relational engine repository and the mirror
// document store. Both hand back plain metric record collections; the
// comparison logic itself lives in pkg/reconcile and performs no I/O.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/kylerisse/abgleich/pkg/config"
	"github.com/kylerisse/abgleich/pkg/metric"
)

// EngineStore reads metric rows from the engine repository.
type EngineStore struct {
	db     *sql.DB
	table  string
	logger *logrus.Logger
}

// NewEngineStore opens the repository connection described by cfg and
// verifies it with a ping.
func NewEngineStore(ctx context.Context, cfg config.EngineConfig, logger *logrus.Logger) (*EngineStore, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: opening engine repository: %w", err)
	}

	pingCtx := ctx
	if timeout := cfg.ConnectTimeout.Std(); timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: engine repository unreachable: %w", err)
	}

	return &EngineStore{
		db:     db,
		table:  cfg.Table,
		logger: logger,
	}, nil
}

// FetchMetrics reads the full metric table. Rows with NULL server,
// message or parameters columns map to empty strings; a status value
// outside the known set is a data defect and fails the fetch.
func (s *EngineStore) FetchMetrics(ctx context.Context) ([]metric.EngineMetric, error) {
	query := fmt.Sprintf(
		"SELECT uid, name, server, status, message, parameters FROM %s",
		pq.QuoteIdentifier(s.table))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: querying engine metrics: %w", err)
	}
	defer rows.Close()

	var metrics []metric.EngineMetric
	for rows.Next() {
		var (
			m          metric.EngineMetric
			server     sql.NullString
			rawStatus  int
			message    sql.NullString
			parameters sql.NullString
		)
		if err := rows.Scan(&m.UID, &m.Name, &server, &rawStatus, &message, &parameters); err != nil {
			return nil, fmt.Errorf("store: scanning engine metric row: %w", err)
		}
		m.Server = server.String
		m.Message = message.String
		m.Parameters = parameters.String

		m.Status, err = metric.ParseStatus(rawStatus)
		if err != nil {
			return nil, fmt.Errorf("store: engine metric %s: %w", m.UID, err)
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: reading engine metrics: %w", err)
	}

	s.logger.Debugf("fetched %d metrics from engine repository table %s", len(metrics), s.table)
	return metrics, nil
}

// Ping verifies the repository connection.
func (s *EngineStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the repository connection.
func (s *EngineStore) Close() error {
	return s.db.Close()
}
