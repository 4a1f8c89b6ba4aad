package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"

	"github.com/iamrekas/geyserbench/internal/comparator"
	"github.com/iamrekas/geyserbench/internal/domain"
	"github.com/iamrekas/geyserbench/internal/dualstream"
	"github.com/iamrekas/geyserbench/internal/geyser"
	"github.com/iamrekas/geyserbench/internal/logfile"
	"github.com/iamrekas/geyserbench/internal/shutdown"
)

const publishTimeout = 5 * time.Second

// ObservationPublisher mirrors observations to a bus. Optional; failures are
// logged, the local log file remains the audit trail.
type ObservationPublisher interface {
	Publish(ctx context.Context, obs domain.Observation) error
}

// Options carries everything a runner needs. Comparator, Global and Shutdown
// are shared across all runners; the rest is per-endpoint.
type Options struct {
	Endpoint   domain.Endpoint
	Account    string
	Commitment pb.CommitmentLevel
	RunID      string
	StartTime  float64
	LogDir     string

	Logger     *log.Logger
	Comparator *comparator.Comparator
	Global     *dualstream.Global
	Shutdown   *shutdown.Broadcast
	Publisher  ObservationPublisher
}

// Runner drives one endpoint until shutdown or stream end, reporting
// (endpoint, signature, timestamp) observations. All variants share this
// skeleton; they differ only in subscription request shape and
// update-to-observation mapping.
type Runner struct {
	opts Options
	h    handler
	logf *logfile.Writer

	txCount   int
	acctCount int
}

// handler is the per-variant part of a runner.
type handler interface {
	// logName names the endpoint's arrival log file.
	logName() string
	// request builds the variant's subscription request.
	request() *pb.SubscribeRequest
	// onUpdate folds one decoded update into the trackers. stop means the
	// runner should leave its loop; a non-nil error is fatal to the runner.
	onUpdate(ctx context.Context, u *pb.SubscribeUpdate) (stop bool, err error)
	// onExit runs once the stream loop has ended, before the log file closes.
	onExit()
}

// New builds a runner for the endpoint's kind.
func New(opts Options) (*Runner, error) {
	if opts.Endpoint.Name == "" || opts.Endpoint.URL == "" {
		return nil, errors.New("runner: endpoint name and url are required")
	}
	if opts.Account == "" {
		return nil, errors.New("runner: watched account is required")
	}
	if opts.Logger == nil || opts.Comparator == nil || opts.Shutdown == nil {
		return nil, errors.New("runner: logger, comparator and shutdown signal are required")
	}

	r := &Runner{opts: opts}
	switch opts.Endpoint.Kind {
	case "", domain.KindTransactions:
		r.h = &transactionsHandler{r: r}
	case domain.KindDual:
		if opts.Global == nil {
			return nil, errors.New("runner: dual-stream runner requires the global tracker")
		}
		r.h = &dualHandler{r: r, local: dualstream.NewLocal()}
	case domain.KindBlocks:
		r.h = &blocksHandler{r: r}
	default:
		return nil, fmt.Errorf("runner: unknown endpoint kind %q", opts.Endpoint.Kind)
	}
	return r, nil
}

// Run executes the runner state machine: connect, subscribe, stream until a
// terminal condition. Connect and subscribe failures are returned to the
// supervisor; stream errors end the runner without escalating.
func (r *Runner) Run(ctx context.Context) error {
	ep := r.opts.Endpoint

	logf, err := logfile.Open(r.opts.LogDir, r.h.logName())
	if err != nil {
		return err
	}
	r.logf = logf
	defer func() {
		if err := logf.Close(); err != nil {
			r.opts.Logger.Printf("[%s] close log file: %v", ep.Name, err)
		}
	}()

	r.opts.Logger.Printf("[%s] connecting to %s", ep.Name, ep.URL)
	client, err := geyser.Dial(ep)
	if err != nil {
		return err
	}
	defer client.Close()

	stream, err := client.Subscribe(ctx)
	if err != nil {
		return err
	}
	r.opts.Logger.Printf("[%s] connected, subscribing to account %s (%s)",
		ep.Name, r.opts.Account, ep.Kind)

	if err := stream.Send(r.h.request()); err != nil {
		return fmt.Errorf("send subscribe request %s: %w", ep.Name, err)
	}

	err = r.stream(ctx, stream)
	r.h.onExit()
	r.opts.Logger.Printf("[%s] done; transactions=%d account updates=%d",
		ep.Name, r.txCount, r.acctCount)
	return err
}

// updateStream is the slice of pb.Geyser_SubscribeClient the loop needs.
type updateStream interface {
	Send(*pb.SubscribeRequest) error
	Recv() (*pb.SubscribeUpdate, error)
}

type recvResult struct {
	update *pb.SubscribeUpdate
	err    error
}

// stream is the runner's only suspension point while streaming: it waits on
// the shutdown broadcast, the context and the next decoded message, whichever
// resolves first. A message already in hand is fully processed before the
// stop signal is checked again.
func (r *Runner) stream(ctx context.Context, st updateStream) error {
	name := r.opts.Endpoint.Name

	updates := make(chan recvResult)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			u, err := st.Recv()
			select {
			case updates <- recvResult{update: u, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			r.opts.Logger.Printf("[%s] context canceled, stopping", name)
			return nil
		case <-r.opts.Shutdown.Done():
			r.opts.Logger.Printf("[%s] received stop signal", name)
			return nil
		case res := <-updates:
			if errors.Is(res.err, io.EOF) {
				r.opts.Logger.Printf("[%s] stream closed by provider", name)
				return nil
			}
			if res.err != nil {
				r.opts.Logger.Printf("[%s] stream error: %v", name, res.err)
				return nil
			}
			stop, err := r.handleUpdate(ctx, st, res.update)
			if err != nil {
				return err
			}
			if stop {
				return nil
			}
		}
	}
}

func (r *Runner) handleUpdate(ctx context.Context, st updateStream, u *pb.SubscribeUpdate) (bool, error) {
	if u == nil {
		return false, nil
	}
	// Pings must be answered on the same stream or the provider closes it.
	if u.GetPing() != nil {
		if err := st.Send(&pb.SubscribeRequest{Ping: &pb.SubscribeRequestPing{Id: 1}}); err != nil {
			r.opts.Logger.Printf("[%s] ping reply failed: %v", r.opts.Endpoint.Name, err)
			return true, nil
		}
		return false, nil
	}
	return r.h.onUpdate(ctx, u)
}

// observe records a matched transaction arrival: audit log line, bus mirror,
// race tracker insert. stop is true when this very observation made the run
// reach its target; that runner broadcasts the stop signal exactly once.
func (r *Runner) observe(ctx context.Context, label, signature string, ts float64) (bool, error) {
	name := r.opts.Endpoint.Name

	if err := r.logf.WriteEntry(ts, label, signature); err != nil {
		// Losing the audit trail is a hard failure for this endpoint.
		return false, err
	}

	obs := domain.Observation{
		RunID:     r.opts.RunID,
		Endpoint:  name,
		Signature: signature,
		Timestamp: ts,
		StartTime: r.opts.StartTime,
	}
	if r.opts.Publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		if err := r.opts.Publisher.Publish(pubCtx, obs); err != nil && !errors.Is(err, context.Canceled) {
			r.opts.Logger.Printf("[%s] publish observation: %v", name, err)
		}
		cancel()
	}

	count, crossed := r.opts.Comparator.Add(name, obs)
	if crossed {
		r.opts.Logger.Printf("[%s] target of %d transactions reached, broadcasting stop", name, count)
		r.opts.Shutdown.Trigger()
		return true, nil
	}
	return false, nil
}
