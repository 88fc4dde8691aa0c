package clicklog

import (
	"context"
	"encoding/csv"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/metrics"
)

// CSVLogger appends click events to a local CSV file. Retained as a
// fallback sink for deployments without a stream broker.
type CSVLogger struct {
	mu       sync.Mutex
	path     string
	pageSize int
	logger   *zap.Logger
}

// NewCSVLogger creates a file-backed click logger.
func NewCSVLogger(path string, pageSize int, logger *zap.Logger) *CSVLogger {
	return &CSVLogger{path: path, pageSize: pageSize, logger: logger}
}

// Log appends one event, writing the header row on first use.
func (l *CSVLogger) Log(_ context.Context, e Event) {
	fields := e.fields(l.pageSize, time.Now())

	go func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		if err := l.append(fields); err != nil {
			metrics.ClickEventsTotal.WithLabelValues("dropped").Inc()
			l.logger.Warn("click event dropped", zap.Error(err))
			return
		}
		metrics.ClickEventsTotal.WithLabelValues("logged").Inc()
	}()
}

func (l *CSVLogger) append(fields map[string]string) error {
	writeHeader := false
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		writeHeader = true
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(fieldOrder); err != nil {
			return err
		}
	}

	row := make([]string, len(fieldOrder))
	for i, name := range fieldOrder {
		row[i] = fields[name]
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
