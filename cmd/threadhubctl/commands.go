package main

import (
	"context"
	"fmt"
	"os"
	"time"

	communitystore "github.com/dalemusser/threadhub/internal/app/store/communities"
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
	"github.com/dalemusser/threadhub/internal/app/system/auditlog"
	"github.com/dalemusser/threadhub/internal/app/system/events"
	"github.com/dalemusser/threadhub/internal/app/system/indexes"
	"github.com/dalemusser/threadhub/internal/app/system/validators"
	"github.com/dalemusser/threadhub/internal/app/system/workers"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	mongoURI     string
	database     string
	amqpURL      string
	amqpExchange string
	timeout      time.Duration
}

// env is what a subcommand works against.
type env struct {
	db     *mongo.Database
	audit  *auditlog.Logger
	events events.Publisher
	close  func()
}

type opener func(ctx context.Context, o options) (*env, error)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRootCmd(open opener, logger *zap.Logger) *cobra.Command {
	var o options

	root := &cobra.Command{
		Use:           "threadhubctl",
		Short:         "Maintenance tasks for a threadhub database",
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&o.mongoURI, "mongo-uri", envOr("THREADHUB_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	pf.StringVar(&o.database, "database", envOr("THREADHUB_MONGO_DATABASE", "threadhub"), "MongoDB database name")
	pf.StringVar(&o.amqpURL, "amqp-url", os.Getenv("THREADHUB_AMQP_URL"), "RabbitMQ URL for events (blank disables publishing)")
	pf.StringVar(&o.amqpExchange, "amqp-exchange", envOr("THREADHUB_AMQP_EXCHANGE", "threadhub.events"), "Topic exchange for events")
	pf.DurationVar(&o.timeout, "timeout", 5*time.Minute, "Deadline for the whole command")

	// run opens the environment, applies the deadline and always closes.
	run := func(fn func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()

			e, err := open(ctx, o)
			if err != nil {
				return err
			}
			defer e.close()
			return fn(ctx, cmd, e, args)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "ensure-schema",
			Short: "Create collection validators and indexes",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
				if err := validators.EnsureAll(ctx, e.db); err != nil {
					return fmt.Errorf("validators: %w", err)
				}
				if err := indexes.EnsureAll(ctx, e.db); err != nil {
					return fmt.Errorf("indexes: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema ensured")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "reconcile",
			Short: "Repair missing child, author and community back-references",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
				rep, err := workers.NewReconciler(e.db, nil, logger, 0).RunOnce(ctx)
				fmt.Fprintf(cmd.OutOrStdout(), "repaired parents=%d authors=%d communities=%d\n",
					rep.Parents, rep.Authors, rep.Communities)
				return err
			}),
		},
		&cobra.Command{
			Use:   "delete-user <externalId>",
			Short: "Delete a user profile and remove it from community member lists",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
				u, err := userstore.New(e.db, logger).Delete(ctx, args[0])
				if err != nil {
					return err
				}
				e.audit.UserDeleted(ctx, auditlog.CLIActor, u.ID, u.ExternalID)
				fmt.Fprintf(cmd.OutOrStdout(), "deleted user %s (@%s)\n", u.ExternalID, u.Username)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "delete-community <externalId>",
			Short: "Delete a community with all of its threads and replies",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
				res, err := communitystore.New(e.db, logger).DeleteCascade(ctx, args[0])
				if err != nil {
					return err
				}
				e.audit.CommunityDeleted(ctx, auditlog.CLIActor, res.Community.ID, res.Community.ExternalID, res.DeletedThreads)

				ev := events.CommunityDeleted{
					CommunityID:    res.Community.ID,
					ExternalID:     res.Community.ExternalID,
					DeletedThreads: res.DeletedThreads,
				}
				if err := e.events.Publish(ctx, events.KeyCommunityDeleted, ev); err != nil {
					logger.Warn("event publish failed", zap.String("key", events.KeyCommunityDeleted), zap.Error(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted community %s and %d threads\n", res.Community.ExternalID, res.DeletedThreads)
				return nil
			}),
		},
	)
	return root
}
