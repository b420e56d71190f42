package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

// ExchangeBranches — обменник событий веток.
const ExchangeBranches Exchange = "dylld.branches"

// Очереди.
const (
	QueueBranchesStarted  Queue = "branches.started"
	QueueBranchesFinished Queue = "branches.finished"
)

// Routing keys.
const (
	RoutingKeyStarted  RoutingKey = "started"
	RoutingKeyFinished RoutingKey = "finished"
)

// binding — очередь и её ключ в ExchangeBranches.
type binding struct {
	queue Queue
	key   RoutingKey
}

var bindings = []binding{
	{QueueBranchesStarted, RoutingKeyStarted},
	{QueueBranchesFinished, RoutingKeyFinished},
}

// SetupTopology объявляет exchange и очереди событий веток.
// Повторный вызов безопасен.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeBranches), // name
			"direct",                 // type
			true,                     // durable
			false,                    // auto-deleted
			false,                    // internal
			false,                    // no-wait
			nil,                      // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeBranches, err)
		}

		for _, b := range bindings {
			if _, err := ch.QueueDeclare(string(b.queue), true, false, false, false, nil); err != nil {
				return fmt.Errorf("declare queue %s: %w", b.queue, err)
			}
			if err := ch.QueueBind(string(b.queue), string(b.key), string(ExchangeBranches), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, ExchangeBranches, err)
			}
		}
		return nil
	})
}

// QueueFor возвращает очередь для ключа маршрутизации.
func QueueFor(key RoutingKey) (Queue, bool) {
	for _, b := range bindings {
		if b.key == key {
			return b.queue, true
		}
	}
	return "", false
}
