package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/GriffinCanCode/asybalance/internal/api"
	"github.com/GriffinCanCode/asybalance/internal/host"
	"github.com/GriffinCanCode/asybalance/internal/infrastructure/logging"
	"github.com/GriffinCanCode/asybalance/internal/options"
	"github.com/GriffinCanCode/asybalance/internal/providers/http/client"
	"github.com/GriffinCanCode/asybalance/internal/providers/http/requests"
	"github.com/GriffinCanCode/asybalance/internal/providers/results"
	"github.com/GriffinCanCode/asybalance/internal/providers/storage"
	"github.com/GriffinCanCode/asybalance/internal/providers/trace"
	"github.com/GriffinCanCode/asybalance/internal/sandbox"
	"github.com/GriffinCanCode/asybalance/internal/shared/id"
	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

// ErrEmptyScript is returned for jobs without a program
var ErrEmptyScript = errors.New("script is empty")

// Metrics receives session, pass and outbound request events
type Metrics interface {
	api.Recorder
	requests.Observer
	SessionStarted(mode string)
	SessionFinished()
}

// Config configures a Runner
type Config struct {
	Sandbox   sandbox.Config
	Client    client.Config
	Options   options.Tree // base options of every session
	Store     storage.Store
	Retriever host.Retriever
	Metrics   Metrics

	MaxConcurrent int64
	TraceCapacity int
	Logger        *zap.Logger
}

// Job is one provider execution
type Job struct {
	Script      string
	Name        string
	Task        string
	AccountID   string
	Preferences types.Preferences
	Options     options.Tree
	Timeout     time.Duration
	Outer       interface{}

	// Channel serves storage and trace capabilities remotely when set
	Channel   api.Channel
	Signature string

	// Results receives every accepted result as it arrives
	Results api.ResultSink
	// Converter post-processes every result, including error results
	Converter api.Converter
}

// JobFromRequest builds a job from an API request
func JobFromRequest(req types.ExecuteRequest) (Job, error) {
	opts, err := options.Parse(req.Options)
	if err != nil {
		return Job{}, err
	}
	job := Job{
		Script:      req.Script,
		Task:        req.Task,
		AccountID:   req.AccountID,
		Preferences: req.Preferences,
		Options:     opts,
	}
	if req.TimeoutMS > 0 {
		job.Timeout = time.Duration(req.TimeoutMS) * time.Millisecond
	}
	return job, nil
}

// Runner executes provider programs, each in its own session
type Runner struct {
	cfg Config
	sem *semaphore.Weighted
	log *zap.Logger
}

// New creates a runner. A nil store keeps account data in memory.
func New(cfg Config) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Store == nil {
		cfg.Store = storage.NewMemory()
	}
	if cfg.Sandbox.Timeout <= 0 {
		cfg.Sandbox.Timeout = sandbox.DefaultTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	return &Runner{
		cfg: cfg,
		sem: semaphore.NewWeighted(cfg.MaxConcurrent),
		log: cfg.Logger,
	}
}

// Run executes job and returns every result it produced. Failures inside
// the program are reported as results; the error covers setup failures and
// results that could not be delivered.
func (r *Runner) Run(ctx context.Context, job Job) (*types.ExecuteResponse, error) {
	if job.Script == "" {
		return nil, ErrEmptyScript
	}

	account := id.AccountID(job.AccountID)
	if account == "" {
		derived, err := id.AccountFor(job.Preferences)
		if err != nil {
			return nil, err
		}
		account = derived
	}
	session := id.NewSessionID()
	log := logging.Session(r.log, session, account)
	logName := fmt.Sprintf("ID:%s (%s)", account, job.Name)

	log.Info("About to execute account " + logName)

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.sem.Release(1)

	mode := "local"
	if job.Channel != nil {
		mode = "remote"
	}
	if r.cfg.Metrics != nil {
		r.cfg.Metrics.SessionStarted(mode)
		defer r.cfg.Metrics.SessionFinished()
	}

	hostCfg := host.Config{
		Client:    r.cfg.Client,
		Options:   options.MergeNew(r.cfg.Options, job.Options),
		Retriever: r.cfg.Retriever,
		Logger:    log,
	}
	if r.cfg.Metrics != nil {
		hostCfg.Observer = r.cfg.Metrics
	}
	h, err := host.New(hostCfg)
	if err != nil {
		return nil, fmt.Errorf("create host: %w", err)
	}
	defer h.Close()

	collector := results.NewCollector(job.Results, log)
	apiCfg := api.Config{
		Preferences: job.Preferences,
		Inner:       h,
		Results:     collector,
		Channel:     job.Channel,
		Signature:   job.Signature,
		Converter:   job.Converter,
		Logger:      log,
	}
	if r.cfg.Metrics != nil {
		apiCfg.Recorder = r.cfg.Metrics
	}

	var tracer *trace.Tracer
	if job.Channel == nil {
		store, err := storage.ForAccount(r.cfg.Store, account.String(), log)
		if err != nil {
			return nil, err
		}
		tracer = trace.New(log, r.cfg.TraceCapacity)
		apiCfg.Storage = store
		apiCfg.Tracer = tracer
	}
	a := api.New(apiCfg)

	sbCfg := r.cfg.Sandbox
	if job.Timeout > 0 {
		sbCfg.Timeout = job.Timeout
	}
	rt := sandbox.New(sbCfg, log)

	log.Info("Starting account " + logName)
	start := time.Now()
	runErr := rt.Run(ctx, a, job.Script, sandbox.RunOptions{Task: job.Task, Outer: job.Outer, Name: job.Name})

	resp := &types.ExecuteResponse{
		SessionID:  session.String(),
		AccountID:  account.String(),
		Results:    collector.Results(),
		DurationMS: time.Since(start).Milliseconds(),
	}
	if tracer != nil {
		resp.Trace = tracer.Entries()
	}
	if runErr != nil {
		log.Error("Account "+logName+" execution error", zap.Error(runErr))
		resp.Error = runErr.Error()
		return resp, runErr
	}

	log.Info("Account " + logName + " finished successfully!")
	return resp, nil
}
