// Package mq публикует события веток в RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — exchange, queues, bindings
//   - publisher.go  — публикация событий веток
//   - consumer.go   — чтение событий (команда dylld events)
//
// Типы сообщений:
//   - branch.started  — ветка начала рост
//   - branch.finished — ветка завершилась (успешно или нет)
//
// Exchange dylld.branches (direct):
//   - branches.started  [routing: started]
//   - branches.finished [routing: finished]
//
// Брокер опционален: без --amqp-url события не публикуются.
package mq
