// Package api содержит HTTP API каталога.
//
// Структура:
//   - handler.go: Handler и его зависимости (сервисы, чтение каталога)
//   - routes.go: регистрация маршрутов ServeMux
//   - middleware.go: logging, recovery, метрики запросов
//   - response.go: JSON конверты и перевод ошибок в HTTP статусы
//   - request.go: пагинация и разбор тела
//   - dto.go: объекты запросов и ответов
//   - dataset_handler.go: /namespaces/{namespace}/datasets
//   - run_handler.go: /namespaces/{namespace}/jobs/{job}/runs и /runs
package api
