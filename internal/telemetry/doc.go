// Package telemetry обеспечивает наблюдаемость dylld.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики
//
// Метрики экспортируются на /metrics, если задан --metrics-addr.
package telemetry
