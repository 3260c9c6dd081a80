// Package txn runs multi-collection writes inside a MongoDB transaction when
// the deployment supports one, and falls back to running them directly on
// deployments that don't (standalone mongod, some DocumentDB versions).
package txn

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// unsupported latches once a deployment has rejected a transaction so later
// calls skip straight to the direct path.
var unsupported atomic.Bool

// Run executes fn in a transaction on db's client. If transactions are not
// supported, fn runs once without a session and its first error is returned
// as-is; the caller is responsible for reporting which sub-write failed.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	if unsupported.Load() {
		return fn(ctx)
	}

	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			markUnsupported(log, err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		markUnsupported(log, err)
		return fn(ctx)
	}
	return err
}

// Reset clears the latched "unsupported" state. Used by tests.
func Reset() { unsupported.Store(false) }

func markUnsupported(log *zap.Logger, err error) {
	if unsupported.CompareAndSwap(false, true) && log != nil {
		log.Warn("transactions not supported; multi-document writes run without a transaction",
			zap.Error(err))
	}
}

// IsNotSupported reports whether err means the server cannot run
// transactions or sessions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation: transactions need a replica set member
			51,  // legacy code some servers return for the same case
			263: // OperationNotSupportedInTransaction
			return true
		}
	}

	s := strings.ToLower(err.Error())
	has := func(a, b string) bool { return strings.Contains(s, a) && strings.Contains(s, b) }
	return has("transaction", "replica set") ||
		has("session", "not supported") ||
		has("transaction", "session") ||
		has("illegal operation", "transaction")
}
