package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rastro/internal/authcontext"
	"github.com/smallbiznis/rastro/internal/clock"
	"github.com/smallbiznis/rastro/internal/shippingaddress/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("shippingaddress.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	userID, ok := authcontext.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	for _, field := range []string{req.FullName, req.Street, req.City, req.PostalCode, req.Country} {
		if strings.TrimSpace(field) == "" {
			return nil, domain.ErrMissingField
		}
	}

	address := &domain.ShippingAddress{
		ID:         s.genID.Generate().Int64(),
		UserID:     userID.Int64(),
		FullName:   strings.TrimSpace(req.FullName),
		Street:     strings.TrimSpace(req.Street),
		City:       strings.TrimSpace(req.City),
		State:      strings.TrimSpace(req.State),
		PostalCode: strings.TrimSpace(req.PostalCode),
		Country:    strings.TrimSpace(req.Country),
		Phone:      strings.TrimSpace(req.Phone),
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repo.Create(ctx, s.db, address); err != nil {
		return nil, err
	}

	s.log.Info("shipping address created",
		zap.String("address_id", snowflake.ID(address.ID).String()),
		zap.String("user_id", userID.String()),
	)

	resp := domain.ToResponse(address)
	return &resp, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	userID, ok := authcontext.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	addresses, err := s.repo.ByUser(ctx, s.db, userID.Int64())
	if err != nil {
		return nil, err
	}

	items := make([]domain.Response, 0, len(addresses))
	for i := range addresses {
		items = append(items, domain.ToResponse(&addresses[i]))
	}
	return items, nil
}
