// Package compiler drives one configuration across its files: truncate the
// configured tables, turn every extract into canonical rows, quarantine the
// rejects and append the rest to the destination.
//
// A run has two phases. Prepare reads and shapes each file into a plan
// without side effects, optionally on several workers. Apply then writes
// quarantine artifacts and appends rows one file at a time in config order
// inside a single load session that is committed once.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"srccompiler/internal/config"
	"srccompiler/internal/datasource/httpds"
	"srccompiler/internal/header"
	"srccompiler/internal/logging"
	"srccompiler/internal/metrics"
	"srccompiler/internal/parser/dates"
	"srccompiler/internal/quarantine"
	"srccompiler/internal/runlock"
	"srccompiler/internal/source"
	"srccompiler/internal/storage"
	"srccompiler/internal/validate"
)

// Function variables used as test seams.
var (
	loadSourceFn  = source.Load
	acquireLockFn = runlock.Acquire
)

// Compiler runs a configuration against a store and a quarantine sink.
type Compiler struct {
	cfg   *config.Config
	store storage.Store
	sink  quarantine.Sink

	log     *zap.Logger
	workers int
	now     func() time.Time
	remote  *httpds.Client

	index     *header.Index
	dates     *dates.Parser
	fallbacks []validate.Fallback
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger. nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Compiler) { c.log = logging.OrNop(l) }
}

// WithWorkers bounds the prepare phase. Values below 2 prepare files
// sequentially. It overrides runtime.workers.
func WithWorkers(n int) Option {
	return func(c *Compiler) { c.workers = n }
}

// WithHTTPClient sets the client used for sources given as URLs.
func WithHTTPClient(hc *httpds.Client) Option {
	return func(c *Compiler) {
		if hc != nil {
			c.remote = hc
		}
	}
}

// WithClock replaces time.Now for durations and the report start time.
func WithClock(now func() time.Time) Option {
	return func(c *Compiler) {
		if now != nil {
			c.now = now
		}
	}
}

// New checks the parts of cfg the run depends on (alias table, date
// formats) and returns a ready Compiler. The caller owns store, which may be
// nil for a compiler that only probes.
func New(cfg *config.Config, store storage.Store, sink quarantine.Sink, opts ...Option) (*Compiler, error) {
	if cfg == nil {
		return nil, errors.New("compiler: nil config")
	}
	if sink == nil {
		sink = quarantine.NewDir(cfg.QuarantineDir)
	}

	idx, err := header.NewIndex(cfg.HeaderAliases)
	if err != nil {
		return nil, fmt.Errorf("compiler: header aliases: %w", err)
	}
	parser, err := dates.NewParser(cfg.DateFormatPriority, cfg.DayFirst)
	if err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}

	c := &Compiler{
		cfg:     cfg,
		store:   store,
		sink:    sink,
		log:     zap.NewNop(),
		workers: cfg.Runtime.Workers,
		now:     time.Now,
		remote:  httpds.NewClient(httpds.Config{}),
		index:   idx,
		dates:   parser,
	}
	for _, fb := range cfg.Fields.Fallbacks {
		c.fallbacks = append(c.fallbacks, validate.Fallback{Target: fb.Target, Source: fb.Source})
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Run executes one compiler run. Per-file read and quality problems are
// reported in the Report and never fail the run. An error is returned for
// setup problems (lock, sessions) and for quarantine or destination write
// failures; in the latter case the load session is still committed and the
// partial report is returned with the error.
func (c *Compiler) Run(ctx context.Context) (rep Report, err error) {
	rep = Report{RunID: uuid.NewString(), Started: c.now()}
	if c.store == nil {
		return rep, errors.New("compiler: nil store")
	}
	log := c.log.With(zap.String("run_id", rep.RunID), zap.String("job", c.cfg.Job))
	defer func() { rep.Duration = c.now().Sub(rep.Started) }()

	lock, err := acquireLockFn(c.cfg.QuarantineDir)
	if err != nil {
		return rep, fmt.Errorf("compiler: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn("release run lock", zap.Error(err))
		}
	}()

	log.Info("run started",
		zap.Int("files", len(c.cfg.Files)),
		zap.Int("truncate", len(c.cfg.TruncateBeforeLoad)),
		zap.Int("workers", c.workers),
	)

	if err := c.truncate(ctx, log); err != nil {
		return rep, err
	}

	plans, err := c.prepareAll(ctx, log)
	if err != nil {
		return rep, err
	}

	err = c.apply(ctx, log, plans, &rep)

	loaded, quarantined := rep.Sum()
	log.Info("run finished",
		zap.Int64("loaded", loaded),
		zap.Int("quarantined", quarantined),
		zap.Duration("elapsed", c.now().Sub(rep.Started)),
		zap.Error(err),
	)
	return rep, err
}

// truncate clears every configured table in its own session. A table that
// cannot be cleared is treated as already empty.
func (c *Compiler) truncate(ctx context.Context, log *zap.Logger) error {
	if len(c.cfg.TruncateBeforeLoad) == 0 {
		return nil
	}
	start := c.now()
	err := c.clearTables(ctx, log)
	metrics.RecordStep(c.cfg.Job, "truncate", err, c.now().Sub(start))
	return err
}

func (c *Compiler) clearTables(ctx context.Context, log *zap.Logger) error {
	sess, err := c.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("compiler: begin truncate session: %w", err)
	}
	for _, table := range c.cfg.TruncateBeforeLoad {
		if err := sess.Clear(ctx, table); err != nil {
			log.Debug("clear skipped", zap.String("table", table), zap.Error(err))
			continue
		}
		log.Debug("table cleared", zap.String("table", table))
	}
	if err := sess.Commit(ctx); err != nil {
		_ = sess.Rollback(ctx)
		return fmt.Errorf("compiler: commit truncate session: %w", err)
	}
	return nil
}

// prepareAll builds one plan per file, in config order. Only a canceled
// context fails it.
func (c *Compiler) prepareAll(ctx context.Context, log *zap.Logger) ([]plan, error) {
	plans := make([]plan, len(c.cfg.Files))
	if c.workers < 2 {
		for i, fs := range c.cfg.Files {
			p, err := c.prepare(ctx, log, fs)
			if err != nil {
				return nil, err
			}
			plans[i] = p
		}
		return plans, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, fs := range c.cfg.Files {
		g.Go(func() error {
			p, err := c.prepare(gctx, log, fs)
			if err != nil {
				return err
			}
			plans[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}

// apply writes every plan in order inside one load session. It stops at the
// first write failure, marks the remaining files skipped and still commits.
func (c *Compiler) apply(ctx context.Context, log *zap.Logger, plans []plan, rep *Report) error {
	sess, err := c.store.Begin(ctx)
	if err != nil {
		for _, p := range plans {
			p.report.Status = StatusSkipped
			rep.Files = append(rep.Files, p.report)
		}
		return fmt.Errorf("compiler: begin load session: %w", err)
	}

	var runErr error
	for i := range plans {
		p := &plans[i]
		if runErr != nil {
			p.report.Status = StatusSkipped
			rep.Files = append(rep.Files, p.report)
			continue
		}
		if err := c.applyPlan(ctx, sess, p); err != nil {
			p.report.Status = StatusFailed
			p.report.Err = err
			runErr = err
		}
		logFile(log, p.report)
		rep.Files = append(rep.Files, p.report)
	}

	if err := sess.Commit(ctx); err != nil {
		_ = sess.Rollback(ctx)
		runErr = multierr.Append(runErr, fmt.Errorf("compiler: commit load session: %w", err))
	}
	return runErr
}

func (c *Compiler) applyPlan(ctx context.Context, sess storage.Session, p *plan) error {
	for _, q := range p.quarantine {
		start := c.now()
		path, err := c.sink.Write(p.report.Name, q.reason, q.rows)
		metrics.RecordStep(c.cfg.Job, "quarantine", err, c.now().Sub(start))
		if err != nil {
			return fmt.Errorf("compiler: %s: quarantine %s: %w", p.report.Name, q.reason, err)
		}
		p.report.Quarantined += q.rows.Len()
		p.report.Artifacts = append(p.report.Artifacts, path)
		metrics.RecordRows(c.cfg.Job, "quarantined", int64(q.rows.Len()))
	}

	if p.report.Status != StatusLoaded {
		return nil
	}
	start := c.now()
	n, err := storage.Load(ctx, sess, p.report.TargetTable, p.load)
	metrics.RecordStep(c.cfg.Job, "load", err, c.now().Sub(start))
	p.report.Loaded = n
	metrics.RecordRows(c.cfg.Job, "loaded", n)
	if err != nil {
		return fmt.Errorf("compiler: %s: %w", p.report.Name, err)
	}
	return nil
}

func logFile(log *zap.Logger, r FileReport) {
	fields := []zap.Field{
		zap.String("file", r.Name),
		zap.String("path", r.Path),
		zap.String("status", string(r.Status)),
		zap.Int("rows_read", r.Read),
		zap.Int64("loaded", r.Loaded),
		zap.Int("quarantined", r.Quarantined),
	}
	if r.Encoding != "" {
		fields = append(fields, zap.String("encoding", r.Encoding), zap.String("delimiter", r.Delimiter))
	}
	if r.Fingerprint != "" {
		fields = append(fields, zap.String("fingerprint", r.Fingerprint))
	}
	if r.Reason != "" {
		fields = append(fields, zap.String("reason", r.Reason), zap.Float64("date_parse_rate", r.DateParseRate))
	}

	switch r.Status {
	case StatusLoaded:
		log.Info("file compiled", fields...)
	case StatusFailed:
		log.Error("file failed", append(fields, zap.Error(r.Err))...)
	default:
		if r.Err != nil {
			fields = append(fields, zap.Error(r.Err))
		}
		log.Warn("file not loaded", fields...)
	}
}
