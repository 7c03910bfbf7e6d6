package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/lib/pq"
	"github.com/smallbiznis/rastro/internal/authcontext"
	"github.com/smallbiznis/rastro/internal/clock"
	"github.com/smallbiznis/rastro/internal/config"
	obsmetrics "github.com/smallbiznis/rastro/internal/observability/metrics"
	"github.com/smallbiznis/rastro/internal/product/domain"
	"github.com/smallbiznis/rastro/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const categoriesCacheTTL = 5 * time.Minute

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	Marketplace *config.MarketplaceConfigHolder
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	marketplace *config.MarketplaceConfigHolder
	metrics     *obsmetrics.Metrics

	categoriesMu      sync.Mutex
	categories        []string
	categoriesExpires time.Time
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("product.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		marketplace: p.Marketplace,
		metrics:     p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	sellerID, ok := authcontext.UserIDFromContext(ctx)
	if !ok || sellerID == 0 {
		return nil, domain.ErrUnauthenticated
	}

	rules := s.marketplace.Get()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.Price <= 0 || req.Price < rules.MinListingPrice {
		return nil, domain.ErrInvalidPrice
	}
	productType := domain.ProductType(strings.TrimSpace(req.Type))
	if !productType.Valid() {
		return nil, domain.ErrInvalidType
	}
	category := trimPtr(req.Category)
	if category != nil && !rules.AllowsCategory(*category) {
		return nil, domain.ErrInvalidCategory
	}
	if rules.MaxImagesPerListing > 0 && len(req.Images) > rules.MaxImagesPerListing {
		return nil, domain.ErrTooManyImages
	}

	now := s.clock.Now()
	switch productType {
	case domain.TypeAuction:
		if req.AuctionEndsAt == nil {
			return nil, domain.ErrAuctionEndRequired
		}
		if !req.AuctionEndsAt.After(now) {
			return nil, domain.ErrAuctionEndInPast
		}
		if rules.MaxAuctionDurationHours > 0 {
			maxEnd := now.Add(time.Duration(rules.MaxAuctionDurationHours) * time.Hour)
			if req.AuctionEndsAt.After(maxEnd) {
				return nil, domain.ErrAuctionTooLong
			}
		}
	case domain.TypeDirectSale:
		if req.AuctionEndsAt != nil {
			return nil, domain.ErrAuctionEndMisused
		}
	}

	id := s.genID.Generate()
	p := &domain.Product{
		ID:          id.Int64(),
		Slug:        makeSlug(name, id),
		SellerID:    sellerID.Int64(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Type:        productType,
		Status:      domain.StatusAvailable,
		Category:    category,
		Location:    trimPtr(req.Location),
		Images:      pq.StringArray(req.Images),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if productType == domain.TypeAuction {
		endsAt := req.AuctionEndsAt.UTC()
		p.AuctionEndsAt = &endsAt
	}
	if req.Metadata != nil {
		p.Metadata = datatypes.JSONMap(req.Metadata)
	}
	if p.Images == nil {
		p.Images = pq.StringArray{}
	}

	if err := s.repo.Create(ctx, s.db, p); err != nil {
		return nil, err
	}

	s.metrics.RecordListingCreated(ctx, string(productType))
	s.log.Info("listing created",
		zap.String("product_id", id.String()),
		zap.String("type", string(productType)),
	)

	resp := domain.ToResponse(p)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, productID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	resp := domain.ToResponse(item)
	return &resp, nil
}

func (s *Service) GetBySlug(ctx context.Context, productSlug string) (*domain.Response, error) {
	productSlug = strings.TrimSpace(productSlug)
	if productSlug == "" {
		return nil, domain.ErrNotFound
	}

	item, err := s.repo.FindBySlug(ctx, s.db, productSlug)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	resp := domain.ToResponse(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	userID, ok := authcontext.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return nil, domain.ErrUnauthenticated
	}

	productID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, productID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	if item.SellerID != userID.Int64() {
		return nil, domain.ErrNotSeller
	}
	if item.Status != domain.StatusAvailable {
		return nil, domain.ErrNotEditable
	}

	rules := s.marketplace.Get()

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		if *req.Price <= 0 || *req.Price < rules.MinListingPrice {
			return nil, domain.ErrInvalidPrice
		}
		item.Price = *req.Price
	}
	if req.Category != nil {
		category := trimPtr(req.Category)
		if category != nil && !rules.AllowsCategory(*category) {
			return nil, domain.ErrInvalidCategory
		}
		item.Category = category
	}
	if req.Location != nil {
		item.Location = trimPtr(req.Location)
	}
	if req.Images != nil {
		if rules.MaxImagesPerListing > 0 && len(req.Images) > rules.MaxImagesPerListing {
			return nil, domain.ErrTooManyImages
		}
		item.Images = pq.StringArray(req.Images)
	}
	if req.Metadata != nil {
		item.Metadata = datatypes.JSONMap(req.Metadata)
	}

	item.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	resp := domain.ToResponse(item)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	userID, ok := authcontext.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.ErrUnauthenticated
	}

	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, productID.Int64())
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	if item.SellerID != userID.Int64() {
		return domain.ErrNotSeller
	}
	if item.Status != domain.StatusAvailable {
		return domain.ErrNotEditable
	}

	return s.repo.Delete(ctx, s.db, productID.Int64())
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	page := req.Page.Normalize()

	items, total, err := s.repo.List(ctx, s.db, domain.ListFilter{
		Search:   strings.TrimSpace(req.Search),
		Category: strings.TrimSpace(req.Category),
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		Location: strings.TrimSpace(req.Location),
		Limit:    page.Limit(),
		Offset:   page.Offset(),
	})
	if err != nil {
		return nil, err
	}

	resp := &domain.ListResponse{
		Items:      make([]domain.Response, 0, len(items)),
		Pagination: pagination.BuildInfo(page, total),
	}
	for i := range items {
		resp.Items = append(resp.Items, domain.ToResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	now := s.clock.Now()

	s.categoriesMu.Lock()
	if s.categories != nil && now.Before(s.categoriesExpires) {
		cached := s.categories
		s.categoriesMu.Unlock()
		return cached, nil
	}
	s.categoriesMu.Unlock()

	categories, err := s.repo.Categories(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}

	s.categoriesMu.Lock()
	s.categories = categories
	s.categoriesExpires = now.Add(categoriesCacheTTL)
	s.categoriesMu.Unlock()

	return categories, nil
}

func (s *Service) UserProducts(ctx context.Context) ([]domain.Response, error) {
	userID, ok := authcontext.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return nil, domain.ErrUnauthenticated
	}

	items, err := s.repo.ByUser(ctx, s.db, userID.Int64())
	if err != nil {
		return nil, err
	}
	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, domain.ToResponse(&items[i]))
	}
	return resp, nil
}

// makeSlug derives a URL slug from the listing name with a short unique suffix.
func makeSlug(name string, id snowflake.ID) string {
	base := slug.Make(name)
	if base == "" {
		base = "listing"
	}
	return base + "-" + strings.ToLower(strconv.FormatInt(id.Int64(), 36))
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
