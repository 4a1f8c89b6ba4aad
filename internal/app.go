package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/iamrekas/geyserbench/internal/comparator"
	"github.com/iamrekas/geyserbench/internal/config"
	"github.com/iamrekas/geyserbench/internal/domain"
	"github.com/iamrekas/geyserbench/internal/dualstream"
	"github.com/iamrekas/geyserbench/internal/geyser"
	"github.com/iamrekas/geyserbench/internal/kafka"
	"github.com/iamrekas/geyserbench/internal/report"
	"github.com/iamrekas/geyserbench/internal/rest"
	"github.com/iamrekas/geyserbench/internal/routine"
	"github.com/iamrekas/geyserbench/internal/runner"
	"github.com/iamrekas/geyserbench/internal/shutdown"
	"github.com/iamrekas/geyserbench/internal/store"
)

// App centralizes dependency wiring for the benchmark service.
type App struct {
	cfg    config.Config
	logger *log.Logger

	redis     *redis.Client
	endpoints *store.EndpointStore
	reports   *store.ReportStore
	publisher *kafka.ObservationPublisher

	httpServer *http.Server
}

// NewApp builds an App with all required dependencies.
func NewApp(cfg config.Config, logger *log.Logger) *App {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	epStore := store.NewEndpointStore(redisClient, cfg.EndpointSetKey)
	repStore := store.NewReportStore(redisClient, "")
	publisher := kafka.NewObservationPublisher(cfg)

	return &App{
		cfg:       cfg,
		logger:    logger,
		redis:     redisClient,
		endpoints: epStore,
		reports:   repStore,
		publisher: publisher,
	}
}

// Run executes one benchmark run and blocks until the run finishes, ctx is
// canceled or a fatal setup error occurs.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.cleanup()

	endpoints, err := a.endpoints.List(ctx)
	if err != nil {
		return fmt.Errorf("list endpoints: %w", err)
	}
	commitment, err := geyser.CommitmentFromString(a.cfg.Commitment)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	startTime := domain.Now()
	comp := comparator.New(a.cfg.Transactions)
	global := dualstream.NewGlobal()
	stop := shutdown.New()

	a.logger.Printf("run %s: racing %d endpoints for %d transactions on account %s",
		runID, len(endpoints), a.cfg.Transactions, a.cfg.Account)

	// Trackers exist before any runner starts and are read-only after the
	// last runner joins.
	manager := routine.NewManager(ctx)
	var failMu sync.Mutex
	failures := make(map[string]error)

	for _, ep := range endpoints {
		r, err := runner.New(runner.Options{
			Endpoint:   ep,
			Account:    a.cfg.Account,
			Commitment: commitment,
			RunID:      runID,
			StartTime:  startTime,
			LogDir:     a.cfg.LogDir,
			Logger:     a.logger,
			Comparator: comp,
			Global:     global,
			Shutdown:   stop,
			Publisher:  a.publisher,
		})
		if err != nil {
			return fmt.Errorf("build runner %s: %w", ep.Name, err)
		}
		task := &routine.Task{
			ID:      ep.Name,
			Handler: r.Run,
			OnError: func(id string, err error) {
				a.logger.Printf("[%s] runner failed: %v", id, err)
				failMu.Lock()
				failures[id] = err
				failMu.Unlock()
			},
		}
		if err := manager.RunTask(task); err != nil {
			return fmt.Errorf("start runner %s: %w", ep.Name, err)
		}
	}

	buildReport := func() report.Report {
		return report.Build(runID, a.cfg.Account, startTime, comp.Snapshot(), global.Snapshot())
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// The run is finished once every runner has independently reached a
		// terminal state; one report, however many runners there were.
		manager.Wait()
		defer cancel()

		rep := buildReport()
		rep.Log(a.logger)

		failMu.Lock()
		for id, err := range failures {
			a.logger.Printf("endpoint %s ended with error: %v", id, err)
		}
		failMu.Unlock()

		saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer saveCancel()
		if err := a.reports.Save(saveCtx, runID, rep); err != nil {
			a.logger.Printf("persist report: %v", err)
		} else {
			a.logger.Printf("report persisted for run %s", runID)
		}
		return nil
	})

	g.Go(func() error {
		return a.runHTTPServer(gctx, buildReport)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) runHTTPServer(ctx context.Context, provider rest.ReportProvider) error {
	r, srv := rest.NewServer(a.cfg)
	a.httpServer = srv
	rest.NewEndpointController(a.endpoints).RegisterEndpointRoutes(r.Group(""))
	rest.NewReportController(provider).RegisterReportRoutes(r.Group(""))

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Printf("HTTP server started at %s", srv.Addr)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	// App context shutdown:
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		err := <-serverErr
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	// HTTP server error:
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (a *App) cleanup() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Printf("error closing Kafka publisher: %v", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Printf("error closing Redis client: %v", err)
		}
	}
}
