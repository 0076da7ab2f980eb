// Package service содержит логику каталога lineage.
//
// Компоненты:
//   - resolver.go        : RunResolver, OutputVersionResolver
//   - bus.go             : NotificationBus и интерфейсы наблюдателей
//   - dataset_service.go : запись datasets с уведомлением о выходах run
//   - run_service.go     : создание runs и смена их состояний
//
// Хранилище и метрики передаются через интерфейсы (CatalogStore,
// RunStore, MetricsSink); пакет не владеет глобальным состоянием.
package service
