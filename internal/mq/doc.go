// Package mq публикует события каталога в RabbitMQ и потребляет их.
//
// Структура:
//   - connection.go: соединение с reconnect и graceful shutdown
//   - topology.go: обменники, очереди, привязки
//   - publisher.go: конверт Message и публикация
//   - observer.go: наблюдатель NotificationBus, пересылающий события в брокер
//   - consumer.go: потребление очередей
//   - listener.go: обработчик, логирующий полученные события
//
// Типы сообщений:
//   - job.output.updated: выходы run изменились (JobOutputUpdate)
//   - run.transition: run сменил состояние (RunTransition)
//
// Обменник lineage.runs (topic), отклонённые сообщения уходят в lineage.dlq.
package mq
