package observability

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"
)

var logger = log.New(os.Stdout, "", 0)

// LogEvent emits a single JSON-line structured log event, enriched with
// whatever RunInfo is attached to ctx.
func LogEvent(ctx context.Context, level string, event string, fields map[string]any) {
	payload := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339),
		"level": level,
		"event": event,
	}

	info := RunInfoFromContext(ctx)
	if info.RunID != "" {
		payload["run_id"] = info.RunID
	}
	if info.Symbol != "" {
		payload["symbol"] = info.Symbol
	}

	for key, value := range normalizeFields(fields) {
		payload[key] = value
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Printf("{\"level\":\"error\",\"event\":\"log_marshal_failed\",\"error\":%q}", err.Error())
		return
	}
	logger.Print(string(raw))
}

// LogWorkerFault records a partition worker crash/recovery event.
func LogWorkerFault(ctx context.Context, partition int, err error, restarted bool) {
	LogEvent(ctx, "error", "worker_fault", map[string]any{
		"partition": partition,
		"error":     err,
		"restarted": restarted,
	})
}

// LogAnomaly records a detected price anomaly.
func LogAnomaly(ctx context.Context, symbol, severity string, changePercent string) {
	LogEvent(ctx, "warn", "anomaly_detected", map[string]any{
		"symbol":         symbol,
		"severity":       severity,
		"change_percent": changePercent,
	})
}

func normalizeFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		if err, ok := value.(error); ok {
			out[key] = err.Error()
			continue
		}
		out[key] = value
	}
	return out
}
