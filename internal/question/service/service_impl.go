package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/rastro/internal/auth/domain"
	"github.com/smallbiznis/rastro/internal/authcontext"
	"github.com/smallbiznis/rastro/internal/clock"
	productdomain "github.com/smallbiznis/rastro/internal/product/domain"
	"github.com/smallbiznis/rastro/internal/question/domain"
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
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	products productdomain.Repository
	auth     authdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("question.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		products: p.Products,
		auth:     p.Auth,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	askerID, ok := authcontext.UserIDFromContext(ctx)
	if !ok || askerID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	productID, err := parseID(req.ProductID)
	if err != nil {
		return nil, err
	}
	body := strings.TrimSpace(req.Question)
	if body == "" {
		return nil, domain.ErrEmptyQuestion
	}

	product, err := s.products.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}

	question := &domain.Question{
		ID:        s.genID.Generate().Int64(),
		ProductID: productID,
		AskerID:   askerID.Int64(),
		Question:  body,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Create(ctx, s.db, question); err != nil {
		return nil, err
	}

	s.log.Info("question created",
		zap.String("question_id", snowflake.ID(question.ID).String()),
		zap.String("product_id", snowflake.ID(productID).String()),
	)

	resp := toResponse(question)
	resp.AskerUsername = s.usernames(ctx, []int64{question.AskerID})[question.AskerID]
	return &resp, nil
}

func (s *Service) ListByProduct(ctx context.Context, productID string) ([]domain.Response, error) {
	id, err := parseID(productID)
	if err != nil {
		return nil, err
	}

	// A broken lookup degrades to an empty list so the listing page still renders.
	questions, err := s.repo.ByProduct(ctx, s.db, id)
	if err != nil {
		s.log.Warn("question lookup failed",
			zap.String("product_id", snowflake.ID(id).String()),
			zap.Error(err),
		)
		return []domain.Response{}, nil
	}

	askerIDs := make([]int64, 0, len(questions))
	for i := range questions {
		askerIDs = append(askerIDs, questions[i].AskerID)
	}
	usernames := s.usernames(ctx, askerIDs)

	items := make([]domain.Response, 0, len(questions))
	for i := range questions {
		item := toResponse(&questions[i])
		item.AskerUsername = usernames[questions[i].AskerID]
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) Answer(ctx context.Context, req domain.AnswerRequest) (*domain.Response, error) {
	callerID, ok := authcontext.UserIDFromContext(ctx)
	if !ok || callerID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	id, err := parseID(req.QuestionID)
	if err != nil {
		return nil, err
	}
	answer := strings.TrimSpace(req.Answer)
	if answer == "" {
		return nil, domain.ErrEmptyAnswer
	}

	now := s.clock.Now()
	var question *domain.Question
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}

		product, err := s.products.FindByID(ctx, tx, current.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		if product.SellerID != callerID.Int64() {
			return domain.ErrNotSeller
		}
		if current.Answer != nil {
			return domain.ErrAlreadyAnswered
		}

		rows, err := s.repo.SetAnswer(ctx, tx, id, answer, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrAlreadyAnswered
		}

		question, err = s.repo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("question answered",
		zap.String("question_id", snowflake.ID(question.ID).String()),
		zap.String("seller_id", callerID.String()),
	)

	resp := toResponse(question)
	resp.AskerUsername = s.usernames(ctx, []int64{question.AskerID})[question.AskerID]
	return &resp, nil
}

// usernames degrades to empty names when the profile lookup fails.
func (s *Service) usernames(ctx context.Context, ids []int64) map[int64]string {
	profiles, err := s.auth.Profiles(ctx, ids)
	if err != nil {
		s.log.Warn("profile lookup failed", zap.Error(err))
		return map[int64]string{}
	}
	names := make(map[int64]string, len(profiles))
	for id, profile := range profiles {
		names[id] = profile.Username
	}
	return names
}

func parseID(raw string) (int64, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id.Int64(), nil
}

func toResponse(q *domain.Question) domain.Response {
	return domain.Response{
		ID:         snowflake.ID(q.ID).String(),
		ProductID:  snowflake.ID(q.ProductID).String(),
		AskerID:    snowflake.ID(q.AskerID).String(),
		Question:   q.Question,
		Answer:     q.Answer,
		AnsweredAt: q.AnsweredAt,
		CreatedAt:  q.CreatedAt,
	}
}
