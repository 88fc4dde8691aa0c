package clicklog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/metrics"
)

// logTimeout bounds the fire-and-forget append so a slow sink can
// never hold up request handling.
const logTimeout = 2 * time.Second

// RedisLogger appends click events to a Redis stream.
type RedisLogger struct {
	client   rueidis.Client
	stream   string
	pageSize int
	logger   *zap.Logger
}

// NewRedisLogger creates a stream-backed click logger.
func NewRedisLogger(client rueidis.Client, stream string, pageSize int, logger *zap.Logger) *RedisLogger {
	return &RedisLogger{client: client, stream: stream, pageSize: pageSize, logger: logger}
}

// Log appends one event. Runs detached from the request context so
// response writing is never blocked; failures count as dropped and
// are only logged.
func (l *RedisLogger) Log(_ context.Context, e Event) {
	eventID := uuid.NewString()
	fields := e.fields(l.pageSize, time.Now())

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), logTimeout)
		defer cancel()

		xadd := l.client.B().Xadd().Key(l.stream).Id("*").FieldValue()
		xadd = xadd.FieldValue("event_id", eventID)
		for _, name := range fieldOrder {
			xadd = xadd.FieldValue(name, fields[name])
		}

		if err := l.client.Do(ctx, xadd.Build()).Error(); err != nil {
			metrics.ClickEventsTotal.WithLabelValues("dropped").Inc()
			l.logger.Warn("click event dropped",
				zap.String("event_id", eventID),
				zap.Error(err),
			)
			return
		}
		metrics.ClickEventsTotal.WithLabelValues("logged").Inc()
	}()
}
