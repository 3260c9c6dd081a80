// internal/app/system/workers/reconciler.go
package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/threadhub/internal/app/system/metrics"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Report counts documents whose back-reference arrays were repaired.
type Report struct {
	Parents     int64 `json:"parents"`
	Authors     int64 `json:"authors"`
	Communities int64 `json:"communities"`
}

// Total is the sum of all repairs.
func (r Report) Total() int64 { return r.Parents + r.Authors + r.Communities }

// link describes one forward reference on threads and the array on the
// target collection that must list it.
type link struct {
	name   string
	field  string // reference field on threads
	target *mongo.Collection
	array  string
	tally  func(*Report, int64)
}

// Reconciler re-derives back-reference arrays from the forward references
// stored on each thread. Writes that ran without a transaction can leave a
// thread whose parent, author or community does not list it yet; a pass
// adds the missing ids with $addToSet.
type Reconciler struct {
	threads  *mongo.Collection
	links    []link
	metrics  *metrics.Metrics
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewReconciler creates a reconciler over db. interval only matters for
// Start; RunOnce can be called without it.
func NewReconciler(db *mongo.Database, m *metrics.Metrics, logger *zap.Logger, interval time.Duration) *Reconciler {
	threads := db.Collection("threads")
	return &Reconciler{
		threads: threads,
		links: []link{
			{"parents", "parent_id", threads, "child_ids", func(r *Report, n int64) { r.Parents += n }},
			{"authors", "author_id", db.Collection("users"), "thread_ids", func(r *Report, n int64) { r.Authors += n }},
			{"communities", "community_id", db.Collection("communities"), "thread_ids", func(r *Report, n int64) { r.Communities += n }},
		},
		metrics:  m,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *Reconciler) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("reconciler started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *Reconciler) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("reconciler stopped")
}

func (w *Reconciler) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *Reconciler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
	defer cancel()

	rep, err := w.RunOnce(ctx)
	if err != nil {
		w.log.Error("reconcile pass failed", zap.Error(err))
		return
	}
	if rep.Total() > 0 {
		w.log.Info("repaired back-references",
			zap.Int64("parents", rep.Parents),
			zap.Int64("authors", rep.Authors),
			zap.Int64("communities", rep.Communities))
	}
}

// RunOnce makes a single pass over every link. It stops at the first
// failing link and returns what was repaired so far.
func (w *Reconciler) RunOnce(ctx context.Context) (Report, error) {
	var rep Report
	for _, l := range w.links {
		n, err := w.repair(ctx, l)
		l.tally(&rep, n)
		w.metrics.Repaired(int(n))
		if err != nil {
			return rep, fmt.Errorf("reconcile %s: %w", l.name, err)
		}
	}
	return rep, nil
}

// repair groups threads by the link's reference field, in creation order,
// and adds each group's ids to the target document when any are missing.
func (w *Reconciler) repair(ctx context.Context, l link) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{l.field: bson.M{"$ne": nil}}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$group", Value: bson.M{"_id": "$" + l.field, "ids": bson.M{"$push": "$_id"}}}},
	}
	cur, err := w.threads.Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var repaired int64
	for cur.Next(ctx) {
		var g struct {
			ID  primitive.ObjectID   `bson:"_id"`
			IDs []primitive.ObjectID `bson:"ids"`
		}
		if err := cur.Decode(&g); err != nil {
			return repaired, err
		}
		res, err := l.target.UpdateOne(ctx,
			bson.M{"_id": g.ID, l.array: bson.M{"$not": bson.M{"$all": g.IDs}}},
			bson.M{"$addToSet": bson.M{l.array: bson.M{"$each": g.IDs}}},
		)
		if err != nil {
			return repaired, err
		}
		repaired += res.ModifiedCount
	}
	return repaired, cur.Err()
}
