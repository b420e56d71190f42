package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/FNNDSC/pl-dylld/internal/mq"
)

// ConnFunc подключается к RabbitMQ.
type ConnFunc func() (*mq.Connection, error)

// NewEventsCmd печатает события веток из RabbitMQ до Ctrl+C.
func NewEventsCmd(connFn ConnFunc, outputFn OutputFunc) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow branch lifecycle events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, ok := mq.QueueFor(mq.RoutingKey(key))
			if !ok {
				return fmt.Errorf("unknown event kind %q (want started or finished)", key)
			}

			conn, err := connFn()
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := mq.SetupTopology(cmd.Context(), conn); err != nil {
				return err
			}

			out := outputFn()
			consumer := mq.NewConsumer(conn, nil, mq.ConsumerConfig{
				Queue:   queue,
				Handler: printEvent(out),
			})

			out.Success(fmt.Sprintf("Following %s events on %s (Ctrl+C to stop)", key, queue))
			err = consumer.Run(cmd.Context())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&key, "kind", string(mq.RoutingKeyFinished), "Event kind: started or finished")
	return cmd
}

func printEvent(out *Output) mq.Handler {
	return func(_ context.Context, msg *mq.Message) error {
		if out.jsonMode {
			out.JSON(msg)
			return nil
		}

		e := msg.Payload
		fmt.Fprintf(out.w, "%s  %-8s  %s  %s  seed=%d node=%d %s\n",
			e.Time.Format(time.RFC3339), e.Status, e.Branch, e.Input, e.SeedID, e.NodeID, e.Outcome)
		if e.Error != "" {
			fmt.Fprintf(out.w, "    error: %s\n", e.Error)
		}
		return nil
	}
}
