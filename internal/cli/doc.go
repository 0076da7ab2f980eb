// Package cli реализует инструмент командной строки Lineage.
//
// CLI работает с API каталога только через HTTP и не импортирует
// внутренние пакеты сервера.
//
// # Client
//
// HTTP клиент разбирает конверты {"data": ...} и {"error": {...}}.
// Ошибки сервера возвращаются как *APIError с кодом и сообщением.
//
//	client := cli.NewClient("http://localhost:8080")
//	ds, err := client.GetDataset("analytics", "orders")
//
// # Output
//
// Таблицы (text/tabwriter) по умолчанию, JSON с флагом --json.
// Данные пишутся в stdout, сообщения Success/Error в stderr,
// поэтому вывод можно передавать дальше: lineage dataset list ns --json | jq .
//
// # Commands
//
//   - dataset: list, show, put, versions
//   - run: create, list, show, outputs, start, complete, fail, abort
//
// Группы создаются фабриками (NewDatasetCmd, NewRunCmd), которые принимают
// clientFn и outputFn. Замыкания вызываются после разбора PersistentFlags.
package cli
