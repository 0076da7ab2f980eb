// Package repo реализует хранилище каталога поверх PostgreSQL (pgx).
//
// Таблицы:
//   - namespaces       (name PK)
//   - sources          (name PK)
//   - jobs             (namespace_name, name) PK
//   - runs             (uuid PK, namespace_name, job_name, state, ...)
//   - datasets         (namespace_name, name) PK, current_version_uuid
//   - dataset_versions (uuid PK, seq BIGSERIAL, namespace_name, dataset_name, run_uuid NULL)
//
// Выходы run: строки dataset_versions с run_uuid = run, в порядке seq.
// Схему создают миграции вне этого репозитория.
//
// Для разработки и тестов есть реализация в памяти: пакет repo/memstore.
package repo
