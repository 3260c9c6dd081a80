// Command threadhubctl runs maintenance tasks against a threadhub database:
// schema setup, back-reference repair and administrative deletes.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/threadhub/internal/app/bootstrap"
	"github.com/dalemusser/threadhub/internal/app/store/audit"
	"github.com/dalemusser/threadhub/internal/app/system/auditlog"
	"github.com/dalemusser/threadhub/internal/app/system/events"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	root := newRootCmd(connect(logger), logger)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// connect returns an opener that dials MongoDB and, when an AMQP URL is
// given, RabbitMQ.
func connect(logger *zap.Logger) opener {
	return func(ctx context.Context, o options) (*env, error) {
		client, err := bootstrap.Mongo(ctx, bootstrap.AppConfig{MongoURI: o.mongoURI})
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		db := client.Database(o.database)

		var pub events.Publisher = events.Noop{}
		if o.amqpURL != "" {
			rp, err := events.NewRabbit(o.amqpURL, o.amqpExchange)
			if err != nil {
				_ = client.Disconnect(context.Background())
				return nil, fmt.Errorf("connect rabbitmq: %w", err)
			}
			pub = rp
		}

		return &env{
			db:     db,
			audit:  auditlog.New(audit.New(db), logger, auditlog.Config{Admin: "all"}),
			events: pub,
			close: func() {
				_ = pub.Close()
				_ = client.Disconnect(context.Background())
			},
		}, nil
	}
}
