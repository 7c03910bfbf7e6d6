package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auctiondomain "github.com/smallbiznis/rastro/internal/auction/domain"
	"github.com/smallbiznis/rastro/internal/clock"
	appconfig "github.com/smallbiznis/rastro/internal/config"
	obsmetrics "github.com/smallbiznis/rastro/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler: missing required dependency")

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	AuctionSvc  auctiondomain.Service
	Marketplace *appconfig.MarketplaceConfigHolder
	Config      Config `optional:"true"`
}

type Scheduler struct {
	db          *gorm.DB
	log         *zap.Logger
	cfg         Config
	genID       *snowflake.Node
	clock       clock.Clock
	auctionSvc  auctiondomain.Service
	marketplace *appconfig.MarketplaceConfigHolder
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil || p.AuctionSvc == nil || p.Marketplace == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()
	return &Scheduler{
		db:          p.DB,
		log:         p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:         cfg,
		genID:       p.GenID,
		clock:       p.Clock,
		auctionSvc:  p.AuctionSvc,
		marketplace: p.Marketplace,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	batchSize int,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name, batchSize)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if owner {
		if err != nil && run != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name    string
		Enabled bool
		Run     func(context.Context) error
	}{
		{"settle_auctions", s.isJobEnabled("settle_auctions"), func(ctx context.Context) error {
			return s.runJob(ctx, "settle_auctions", s.marketplace.Get().SettlementBatchSize, s.cfg.JobTimeout, s.SettleAuctionsJob)
		}},
	}

	for _, job := range jobs {
		if job.Enabled {
			err = errors.Join(err, job.Run(parent))
		}
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := time.Since(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// An empty EnabledJobs list enables every job.
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// SettleAuctionsJob closes expired auctions, converting the highest bid
// into an order or cancelling the listing when nobody bid.
func (s *Scheduler) SettleAuctionsJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "settle_auctions", s.marketplace.Get().SettlementBatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer func() { s.logJobFinish(ctx, run) }()
	}

	report, err := s.auctionSvc.Settle(ctx)
	if err != nil {
		s.logSchedulerError(ctx, run, "auction settlement sweep failed", "settle_auctions", err)
		return err
	}

	run.AddProcessed(report.Processed)
	for i := 0; i < report.Failed; i++ {
		run.IncError()
	}
	obsmetrics.Scheduler().AddBatchProcessed("settle_auctions", "products", report.Processed)

	for _, detail := range report.Details {
		if detail.Outcome != auctiondomain.OutcomeFailed {
			continue
		}
		s.logger(ctx).Warn("auction settlement failed",
			zap.String("job", "settle_auctions"),
			zap.String("product_id", detail.ProductID),
			zap.String("error", detail.Error),
		)
	}

	return nil
}
