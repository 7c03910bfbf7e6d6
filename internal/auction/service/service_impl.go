package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rastro/internal/auction/domain"
	"github.com/smallbiznis/rastro/internal/clock"
	"github.com/smallbiznis/rastro/internal/config"
	obsmetrics "github.com/smallbiznis/rastro/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/rastro/internal/order/domain"
	productdomain "github.com/smallbiznis/rastro/internal/product/domain"
	"github.com/smallbiznis/rastro/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	Products    productdomain.Repository
	Orders      orderdomain.Repository
	Marketplace *config.MarketplaceConfigHolder
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	products    productdomain.Repository
	orders      orderdomain.Repository
	marketplace *config.MarketplaceConfigHolder
	metrics     *obsmetrics.Metrics
	refs        *orderdomain.ReferenceGenerator
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("auction.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		products:    p.Products,
		orders:      p.Orders,
		marketplace: p.Marketplace,
		metrics:     p.Metrics,
		refs:        orderdomain.NewReferenceGenerator(),
	}
}

func (s *Service) Settle(ctx context.Context) (*domain.SettleReport, error) {
	now := s.clock.Now()
	batch := s.marketplace.Get().SettlementBatchSize

	expired, err := s.repo.FindExpired(ctx, s.db, now, batch)
	if err != nil {
		return nil, err
	}

	report := &domain.SettleReport{Details: make([]domain.SettleDetail, 0, len(expired))}
	for i := range expired {
		detail := s.settleOne(ctx, &expired[i])
		report.Details = append(report.Details, detail)
		if detail.Outcome == domain.OutcomeFailed {
			report.Failed++
		} else {
			report.Processed++
		}
	}

	if len(expired) > 0 {
		s.log.Info("auction sweep finished",
			zap.Int("processed", report.Processed),
			zap.Int("failed", report.Failed),
		)
	}
	return report, nil
}

func (s *Service) settleOne(ctx context.Context, product *productdomain.Product) domain.SettleDetail {
	detail := domain.SettleDetail{ProductID: snowflake.ID(product.ID).String()}
	now := s.clock.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		winning, err := s.repo.FindWinningBid(ctx, tx, product.ID)
		if err != nil {
			return err
		}

		if winning == nil {
			rows, err := s.products.AdvanceStatus(ctx, tx, product.ID,
				[]productdomain.ProductStatus{productdomain.StatusAvailable},
				productdomain.StatusCancelled, now)
			if err != nil {
				return err
			}
			// Zero rows means another sweep got there first.
			if rows > 0 {
				detail.Outcome = domain.OutcomeCancelled
			} else {
				detail.Outcome = domain.OutcomeSkipped
			}
			return nil
		}

		order := &orderdomain.Order{
			ID:          s.genID.Generate().Int64(),
			Reference:   s.refs.Next(now),
			ProductID:   product.ID,
			BuyerID:     winning.BidderID,
			SellerID:    product.SellerID,
			Status:      orderdomain.StatusPendingPayment,
			TotalAmount: winning.Amount,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.orders.Create(ctx, tx, order); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return orderdomain.ErrActiveOrderExists
			}
			return err
		}

		rows, err := s.products.BeginSale(ctx, tx, product.ID, winning.BidderID, winning.Amount,
			productdomain.StatusPendingPayment, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return orderdomain.ErrProductUnavailable
		}

		detail.Outcome = domain.OutcomeSold
		detail.OrderID = snowflake.ID(order.ID).String()
		return nil
	})
	if err != nil {
		s.log.Warn("auction settlement failed",
			zap.String("product_id", detail.ProductID),
			zap.Error(err),
		)
		detail.Outcome = domain.OutcomeFailed
		detail.Error = err.Error()
	}

	s.metrics.RecordAuctionSettled(ctx, detail.Outcome)
	return detail
}
