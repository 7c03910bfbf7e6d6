package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/rastro/internal/auth/domain"
	"github.com/smallbiznis/rastro/internal/authcontext"
	"github.com/smallbiznis/rastro/internal/clock"
	"github.com/smallbiznis/rastro/internal/config"
	"github.com/smallbiznis/rastro/internal/message/domain"
	orderdomain "github.com/smallbiznis/rastro/internal/order/domain"
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
	Orders      orderdomain.Repository
	Auth        authdomain.Service
	Marketplace *config.MarketplaceConfigHolder
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	orders      orderdomain.Repository
	auth        authdomain.Service
	marketplace *config.MarketplaceConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("message.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		orders:      p.Orders,
		auth:        p.Auth,
		marketplace: p.Marketplace,
	}
}

func (s *Service) Send(ctx context.Context, req domain.SendRequest) (*domain.Response, error) {
	senderID, ok := authcontext.UserIDFromContext(ctx)
	if !ok || senderID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	productID, err := parseID(req.ProductID)
	if err != nil {
		return nil, err
	}
	receiverID, err := parseID(req.ReceiverID)
	if err != nil {
		return nil, err
	}
	if receiverID == senderID.Int64() {
		return nil, domain.ErrSelfMessage
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, domain.ErrEmptyContent
	}

	order, err := s.orders.FindByProduct(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if order == nil || !linksParties(order, senderID.Int64(), receiverID) {
		return nil, domain.ErrNotAllowed
	}
	if !s.statusAllowed(order.Status) {
		return nil, domain.ErrNotAllowed
	}

	message := &domain.Message{
		ID:         s.genID.Generate().Int64(),
		ProductID:  productID,
		OrderID:    order.ID,
		SenderID:   senderID.Int64(),
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repo.Create(ctx, s.db, message); err != nil {
		return nil, err
	}

	s.log.Info("message sent",
		zap.String("message_id", snowflake.ID(message.ID).String()),
		zap.String("product_id", snowflake.ID(productID).String()),
	)

	resp := toResponse(message)
	resp.SenderUsername = s.usernames(ctx, []int64{message.SenderID})[message.SenderID]
	return &resp, nil
}

func (s *Service) Conversation(ctx context.Context, productID string) ([]domain.Response, error) {
	userID, ok := authcontext.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	id, err := parseID(productID)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByProduct(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if order == nil || (order.BuyerID != userID.Int64() && order.SellerID != userID.Int64()) {
		return nil, domain.ErrNotParticipant
	}

	messages, err := s.repo.ByProductAndParticipant(ctx, s.db, id, userID.Int64())
	if err != nil {
		return nil, err
	}

	senderIDs := make([]int64, 0, len(messages))
	for i := range messages {
		senderIDs = append(senderIDs, messages[i].SenderID)
	}
	usernames := s.usernames(ctx, senderIDs)

	items := make([]domain.Response, 0, len(messages))
	for i := range messages {
		item := toResponse(&messages[i])
		item.SenderUsername = usernames[messages[i].SenderID]
		items = append(items, item)
	}
	return items, nil
}

// linksParties reports whether the order connects exactly the sender and
// receiver, in either direction.
func linksParties(order *orderdomain.Order, senderID, receiverID int64) bool {
	if order.BuyerID == senderID && order.SellerID == receiverID {
		return true
	}
	return order.SellerID == senderID && order.BuyerID == receiverID
}

func (s *Service) statusAllowed(status orderdomain.OrderStatus) bool {
	for _, allowed := range s.marketplace.Get().MessagingAllowedStatus {
		if string(status) == allowed {
			return true
		}
	}
	return false
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

func toResponse(m *domain.Message) domain.Response {
	return domain.Response{
		ID:         snowflake.ID(m.ID).String(),
		ProductID:  snowflake.ID(m.ProductID).String(),
		SenderID:   snowflake.ID(m.SenderID).String(),
		ReceiverID: snowflake.ID(m.ReceiverID).String(),
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
}
