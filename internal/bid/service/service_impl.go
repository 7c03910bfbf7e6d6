package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/rastro/internal/auth/domain"
	"github.com/smallbiznis/rastro/internal/authcontext"
	"github.com/smallbiznis/rastro/internal/bid/domain"
	"github.com/smallbiznis/rastro/internal/clock"
	obsmetrics "github.com/smallbiznis/rastro/internal/observability/metrics"
	productdomain "github.com/smallbiznis/rastro/internal/product/domain"
	"github.com/smallbiznis/rastro/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Products productdomain.Repository
	Auth     authdomain.Service
	Limiter  *ratelimit.BidLimiter `optional:"true"`
	Metrics  *obsmetrics.Metrics   `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	products productdomain.Repository
	auth     authdomain.Service
	limiter  *ratelimit.BidLimiter
	metrics  *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("bid.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		products: p.Products,
		auth:     p.Auth,
		limiter:  p.Limiter,
		metrics:  p.Metrics,
	}
}

func (s *Service) Place(ctx context.Context, req domain.PlaceRequest) (*domain.PlaceResponse, error) {
	bidderID, ok := authcontext.UserIDFromContext(ctx)
	if !ok || bidderID == 0 {
		return nil, domain.ErrUnauthenticated
	}

	// The limiter fails open: a broken redis must not freeze the auction floor.
	if allowed, err := s.limiter.AllowBidder(ctx, bidderID.String()); err != nil {
		s.log.Warn("bid rate limiter unavailable", zap.Error(err))
	} else if !allowed {
		s.metrics.RecordRateLimitDenied(ctx, "/api/bids", "bidder_rate")
		return nil, domain.ErrRateLimited
	} else {
		s.metrics.RecordRateLimitAllowed(ctx, "/api/bids")
	}

	productID, err := snowflake.ParseString(strings.TrimSpace(req.ProductID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	now := s.clock.Now()
	bid := &domain.Bid{
		ID:        s.genID.Generate().Int64(),
		ProductID: productID.Int64(),
		BidderID:  bidderID.Int64(),
		Amount:    req.Amount,
		CreatedAt: now,
	}

	var product *productdomain.Product
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.products.FindByID(ctx, tx, productID.Int64())
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrProductNotFound
		}
		if current.Type != productdomain.TypeAuction {
			return domain.ErrNotAuction
		}
		if current.AuctionEndsAt != nil && !now.Before(*current.AuctionEndsAt) {
			return domain.ErrAuctionEnded
		}
		if current.SellerID == bidderID.Int64() {
			return domain.ErrOwnListing
		}
		if req.Amount <= current.Price {
			return domain.ErrBidTooLow
		}

		if err := s.repo.Insert(ctx, tx, bid); err != nil {
			return err
		}

		rows, err := s.repo.RaisePrice(ctx, tx, productID.Int64(), req.Amount, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			// Another bid moved the price first, or the listing closed.
			return domain.ErrConflict
		}

		product, err = s.products.FindByID(ctx, tx, productID.Int64())
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordBidPlaced(ctx, string(product.Type))
	s.log.Info("bid placed",
		zap.String("product_id", productID.String()),
		zap.String("bidder_id", bidderID.String()),
		zap.Float64("amount", req.Amount),
	)

	bidResp := s.toResponse(ctx, bid)
	return &domain.PlaceResponse{
		Product: productdomain.ToResponse(product),
		Bid:     bidResp,
	}, nil
}

func (s *Service) ListByProduct(ctx context.Context, productID string) ([]domain.Response, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(productID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	product, err := s.products.FindByID(ctx, s.db, id.Int64())
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}

	bids, err := s.repo.ListByProduct(ctx, s.db, id.Int64())
	if err != nil {
		return nil, err
	}

	bidderIDs := make([]int64, 0, len(bids))
	for _, b := range bids {
		bidderIDs = append(bidderIDs, b.BidderID)
	}
	usernames := s.usernames(ctx, bidderIDs)

	resp := make([]domain.Response, 0, len(bids))
	for i := range bids {
		item := toBidResponse(&bids[i])
		item.BidderUsername = usernames[bids[i].BidderID]
		resp = append(resp, item)
	}
	return resp, nil
}

func (s *Service) toResponse(ctx context.Context, bid *domain.Bid) domain.Response {
	resp := toBidResponse(bid)
	resp.BidderUsername = s.usernames(ctx, []int64{bid.BidderID})[bid.BidderID]
	return resp
}

// usernames degrades to empty names when the profile lookup fails.
func (s *Service) usernames(ctx context.Context, ids []int64) map[int64]string {
	profiles, err := s.auth.Profiles(ctx, ids)
	if err != nil {
		s.log.Warn("bidder profile lookup failed", zap.Error(err))
		return map[int64]string{}
	}
	names := make(map[int64]string, len(profiles))
	for id, profile := range profiles {
		names[id] = profile.Username
	}
	return names
}

func toBidResponse(b *domain.Bid) domain.Response {
	return domain.Response{
		ID:        snowflake.ID(b.ID).String(),
		ProductID: snowflake.ID(b.ProductID).String(),
		BidderID:  snowflake.ID(b.BidderID).String(),
		Amount:    b.Amount,
		CreatedAt: b.CreatedAt,
	}
}

