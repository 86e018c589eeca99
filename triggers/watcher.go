package triggers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/config"
)

const reopenDelay = 5 * time.Second

// Watcher tails the change streams of the configured routes
type Watcher struct {
	db      *mongo.Database
	cursors CursorRepository
	routes  []Route
	config  *config.Config
	logger  *zap.SugaredLogger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type WatcherParams struct {
	fx.In

	Database  *mongo.Database
	Cursors   CursorRepository
	Routes    []Route
	Config    *config.Config
	Logger    *zap.SugaredLogger
	Lifecycle fx.Lifecycle
}

func NewWatcher(p WatcherParams) *Watcher {
	w := &Watcher{
		db:      p.Database,
		cursors: p.Cursors,
		routes:  p.Routes,
		config:  p.Config,
		logger:  p.Logger,
	}

	if p.Config.TriggersEnabled {
		p.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return w.Start(ctx)
			},
			OnStop: func(ctx context.Context) error {
				return w.Stop(ctx)
			},
		})
	}

	return w
}

// Start enables the pre-images where required and starts a stream per route
func (w *Watcher) Start(ctx context.Context) error {
	for _, route := range w.routes {
		if route.PreImages {
			if err := w.enablePreImages(ctx, route.Collection); err != nil {
				return err
			}
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	for _, route := range w.routes {
		w.wg.Add(1)
		go func(route Route) {
			defer w.wg.Done()
			w.run(runCtx, route)
		}(route)
	}

	w.logger.Infow("triggers started", "routes", len(w.routes))
	return nil
}

func (w *Watcher) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Infow("triggers stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Watcher) run(ctx context.Context, route Route) {
	logger := w.logger.With("route", route.Name)
	for {
		err := w.watch(ctx, route)
		if ctx.Err() != nil {
			return
		}
		logger.Errorw("change stream failed, reopening", "delay", reopenDelay, zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(reopenDelay):
		}
	}
}

func (w *Watcher) watch(ctx context.Context, route Route) error {
	token, err := w.cursors.Get(ctx, route.Name)
	if err != nil {
		return err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"operationType": bson.M{"$in": route.Operations}}}},
	}
	stream, err := w.db.Collection(route.Collection).Watch(ctx, pipeline, StreamOptions(route, token))
	if err != nil {
		return fmt.Errorf("unable to open change stream of %s: %w", route.Collection, err)
	}
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		var event Event
		if err := stream.Decode(&event); err != nil {
			w.logger.Errorw("unable to decode change event", "route", route.Name, zap.Error(err))
		} else {
			w.Dispatch(ctx, route, event)
		}

		if err := w.cursors.Save(ctx, route.Name, stream.ResumeToken()); err != nil {
			return err
		}
	}

	return stream.Err()
}

// StreamOptions returns the change stream options of the route resuming after token. Routes
// comparing documents get the post-image of each change: a lookup would return the document
// as it is when the event is read, which may be a later version or none at all.
func StreamOptions(route Route, token bson.Raw) *options.ChangeStreamOptions {
	opts := options.ChangeStream()
	if route.PreImages {
		opts.SetFullDocument(options.WhenAvailable)
		opts.SetFullDocumentBeforeChange(options.WhenAvailable)
	} else {
		opts.SetFullDocument(options.UpdateLookup)
	}
	if token != nil {
		opts.SetResumeAfter(token)
	}
	return opts
}

// Dispatch runs every handler of the route. Each handler is retried on its own and its last
// failure is logged once the attempts are exhausted. It returns the names of the failed handlers.
func (w *Watcher) Dispatch(ctx context.Context, route Route, event Event) []string {
	if !route.Matches(event) {
		return nil
	}

	names := make([]string, 0, len(route.Handlers))
	for name := range route.Handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	var failed []string
	for _, name := range names {
		handler := route.Handlers[name]
		err := retry.Do(
			func() error {
				return handler(ctx, event)
			},
			retry.Attempts(w.config.TriggerRetryAttempts),
			retry.Delay(w.config.TriggerRetryDelay),
			retry.Context(ctx),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(n uint, err error) {
				w.logger.Warnw("trigger handler failed, retrying", "route", route.Name, "handler", name, "attempt", n+1, zap.Error(err))
			}),
		)
		if err != nil {
			w.logger.Errorw("trigger handler failed", "route", route.Name, "handler", name, "documentKey", event.DocumentKey.String(), zap.Error(err))
			failed = append(failed, name)
		}
	}

	return failed
}

func (w *Watcher) enablePreImages(ctx context.Context, collection string) error {
	names, err := w.db.ListCollectionNames(ctx, bson.M{"name": collection})
	if err != nil {
		return fmt.Errorf("unable to list collections: %w", err)
	}
	if len(names) == 0 {
		err := w.db.CreateCollection(ctx, collection)
		var cmdErr mongo.CommandError
		if err != nil && !(errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists") {
			return fmt.Errorf("unable to create collection %s: %w", collection, err)
		}
	}

	cmd := bson.D{
		{Key: "collMod", Value: collection},
		{Key: "changeStreamPreAndPostImages", Value: bson.M{"enabled": true}},
	}
	if err := w.db.RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("unable to enable pre-images of %s: %w", collection, err)
	}
	return nil
}
