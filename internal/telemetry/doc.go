// Package telemetry обеспечивает наблюдаемость каталога.
//
// Включает:
//   - logging.go: structured logging через slog
//   - metrics.go: Prometheus метрики каталога и HTTP
//
// Все бинарники используют единый формат логирования
// и экспортируют метрики на /metrics.
package telemetry
