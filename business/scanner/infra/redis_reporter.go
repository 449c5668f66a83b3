package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	executionDomain "github.com/fd1az/dex-scanner/business/execution/domain"
	"github.com/fd1az/dex-scanner/business/scanner/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/logger"
)

// DefaultRedisChannel is the pub/sub channel events are published to.
const DefaultRedisChannel = "dex-scanner:opportunities"

// Publisher is the subset of *redis.Client the reporter needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisReporter publishes JSON events to a Redis channel.
type RedisReporter struct {
	pub     Publisher
	channel string
	logger  logger.LoggerInterface
	now     func() time.Time
}

// NewRedisReporter creates a RedisReporter. An empty channel uses the default.
func NewRedisReporter(pub Publisher, channel string, log logger.LoggerInterface) *RedisReporter {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisReporter{pub: pub, channel: channel, logger: log, now: time.Now}
}

// NewRedisClient creates a client from connection settings.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// Start does nothing; the connection is checked when the client is built.
func (r *RedisReporter) Start(ctx context.Context) error {
	return nil
}

// ReportOpportunity publishes an opportunity event.
func (r *RedisReporter) ReportOpportunity(ctx context.Context, opp domain.Opportunity) error {
	return r.publish(ctx, Event{Type: EventOpportunity, At: r.now(), Opportunity: opportunityPayload(opp)})
}

// ReportResult publishes a transaction result event.
func (r *RedisReporter) ReportResult(ctx context.Context, opp domain.Opportunity, res executionDomain.TransactionResult) error {
	return r.publish(ctx, Event{Type: EventResult, At: r.now(), Result: &res})
}

// ReportCycle publishes a cycle summary event.
func (r *RedisReporter) ReportCycle(ctx context.Context, report domain.CycleReport) error {
	return r.publish(ctx, Event{Type: EventCycle, At: r.now(), Cycle: cyclePayload(report)})
}

// Stop closes the publisher when it owns a connection.
func (r *RedisReporter) Stop() error {
	if c, ok := r.pub.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (r *RedisReporter) publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return apperror.New(apperror.CodeReportFailed, apperror.WithContext("encode event"), apperror.WithCause(err))
	}

	receivers, err := r.pub.Publish(ctx, r.channel, payload).Result()
	if err != nil {
		return apperror.New(apperror.CodeReportFailed,
			apperror.WithContext(fmt.Sprintf("redis publish %s", ev.Type)),
			apperror.WithCause(err))
	}
	r.logger.Debug(ctx, "event published", "channel", r.channel, "type", ev.Type, "receivers", receivers)
	return nil
}
