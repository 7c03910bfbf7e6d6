package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/smallbiznis/rastro/internal/auth/domain"
	"github.com/smallbiznis/rastro/internal/clock"
	"github.com/smallbiznis/rastro/internal/config"
	"github.com/smallbiznis/rastro/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Cfg   config.Config
	Repo  domain.Repository
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	secret []byte
	repo   domain.Repository
	cfg    config.Config
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("auth.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		secret: []byte(p.Cfg.AuthJWTSecret),
		repo:   p.Repo,
		cfg:    p.Cfg,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}
	username := strings.TrimSpace(req.Username)
	if len(username) < 3 {
		return nil, domain.ErrInvalidUsername
	}
	if len(req.Password) < minPasswordLength {
		return nil, domain.ErrInvalidPassword
	}

	if existing, err := s.repo.FindByEmail(ctx, s.db, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrUserExists
	}
	if existing, err := s.repo.FindByUsername(ctx, s.db, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	profile := &domain.Profile{
		ID:           s.genID.Generate().Int64(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, s.db, profile); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrUserExists
		}
		return nil, err
	}

	token, err := s.issueToken(profile.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", snowflake.ID(profile.ID).String()))
	return &domain.AuthResponse{Token: token, User: toProfileResponse(profile)}, nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	profile, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(profile.ID)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResponse{Token: token, User: toProfileResponse(profile)}, nil
}

func (s *Service) Verify(ctx context.Context, token string) (int64, error) {
	_ = ctx
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, domain.ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return 0, domain.ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return 0, domain.ErrInvalidToken
	}
	return userID, nil
}

func (s *Service) Profile(ctx context.Context, id int64) (*domain.ProfileResponse, error) {
	profile, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, domain.ErrNotFound
	}
	resp := toProfileResponse(profile)
	return &resp, nil
}

func (s *Service) Profiles(ctx context.Context, ids []int64) (map[int64]domain.ProfileResponse, error) {
	items, err := s.repo.FindByIDs(ctx, s.db, dedupe(ids))
	if err != nil {
		return nil, err
	}
	result := make(map[int64]domain.ProfileResponse, len(items))
	for i := range items {
		result[items[i].ID] = toProfileResponse(&items[i])
	}
	return result, nil
}

func (s *Service) issueToken(userID int64) (string, error) {
	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AuthTokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func toProfileResponse(p *domain.Profile) domain.ProfileResponse {
	return domain.ProfileResponse{
		ID:        snowflake.ID(p.ID).String(),
		Email:     p.Email,
		Username:  p.Username,
		CreatedAt: p.CreatedAt,
	}
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
