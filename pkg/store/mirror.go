package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/kylerisse/abgleich/pkg/config"
	"github.com/kylerisse/abgleich/pkg/metric"
)

const scanMaxRetries = 4

// MirrorStore scans metric projections from the mirror document store.
// Each metric is a hash stored under <key_prefix><uid>.
type MirrorStore struct {
	client    *redis.Client
	keyPrefix string
	scanCount int64
	limiter   *rate.Limiter
	logger    *logrus.Logger
}

// NewMirrorStore connects to the mirror store described by cfg and
// verifies the connection with a ping.
func NewMirrorStore(ctx context.Context, cfg config.MirrorConfig, logger *logrus.Logger) (*MirrorStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("store: mirror store unreachable: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.ScanRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.ScanRate), 1)
	}

	scanCount := cfg.ScanCount
	if scanCount <= 0 {
		scanCount = 100
	}

	return &MirrorStore{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		scanCount: scanCount,
		limiter:   limiter,
		logger:    logger,
	}, nil
}

// ScanMetrics walks every metric hash under the key prefix and returns
// the full mirror population. SCAN batches are retried with exponential
// backoff on transient failures; hash reads are throttled by the
// configured rate limit.
func (s *MirrorStore) ScanMetrics(ctx context.Context) ([]metric.MirrorMetric, error) {
	var metrics []metric.MirrorMetric

	match := s.keyPrefix + "*"
	var cursor uint64
	for {
		var keys []string
		scanBatch := func() error {
			var err error
			keys, cursor, err = s.client.Scan(ctx, cursor, match, s.scanCount).Result()
			return err
		}
		if err := s.retry(ctx, scanBatch); err != nil {
			return nil, fmt.Errorf("store: scanning mirror keys: %w", err)
		}

		for _, key := range keys {
			if s.limiter != nil {
				if err := s.limiter.Wait(ctx); err != nil {
					return nil, fmt.Errorf("store: mirror scan interrupted: %w", err)
				}
			}

			var fields map[string]string
			readHash := func() error {
				var err error
				fields, err = s.client.HGetAll(ctx, key).Result()
				return err
			}
			if err := s.retry(ctx, readHash); err != nil {
				return nil, fmt.Errorf("store: reading mirror entry %s: %w", key, err)
			}
			if len(fields) == 0 {
				// Key expired or was deleted between SCAN and HGETALL.
				s.logger.Debugf("mirror entry %s vanished during scan", key)
				continue
			}

			metrics = append(metrics, mirrorFromHash(s.keyPrefix, key, fields))
		}

		if cursor == 0 {
			break
		}
	}

	s.logger.Debugf("scanned %d metrics from mirror store", len(metrics))
	return metrics, nil
}

// retry runs op with exponential backoff, bounded by scanMaxRetries and
// the context.
func (s *MirrorStore) retry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(newScanBackOff(), scanMaxRetries), ctx)
	return backoff.RetryNotify(op, policy, func(err error, next time.Duration) {
		s.logger.Warnf("transient mirror store failure, retrying in %v: %v", next, err)
	})
}

func newScanBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}

// mirrorFromHash maps one stored hash to a MirrorMetric. The uid comes
// from the key suffix; a uid field in the hash, when present, takes
// precedence.
func mirrorFromHash(keyPrefix, key string, fields map[string]string) metric.MirrorMetric {
	uid := strings.TrimPrefix(key, keyPrefix)
	if v, ok := fields["uid"]; ok && v != "" {
		uid = v
	}
	return metric.MirrorMetric{
		UID:            uid,
		Name:           fields["name"],
		DisplayName:    fields["display_name"],
		MetricType:     fields["metricType"],
		MetricTypeName: fields["metricTypeName"],
		Symbol:         fields["symbol"],
	}
}

// Ping verifies the mirror store connection.
func (s *MirrorStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the mirror store connection.
func (s *MirrorStore) Close() error {
	return s.client.Close()
}
