package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	authdomain "github.com/smallbiznis/rastro/internal/auth/domain"
	"github.com/smallbiznis/rastro/internal/authcontext"
	"github.com/smallbiznis/rastro/internal/clock"
	"github.com/smallbiznis/rastro/internal/config"
	"github.com/smallbiznis/rastro/internal/message/domain"
	messagerepository "github.com/smallbiznis/rastro/internal/message/repository"
	orderdomain "github.com/smallbiznis/rastro/internal/order/domain"
	orderrepository "github.com/smallbiznis/rastro/internal/order/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type authStub struct {
	usernames map[int64]string
}

func (a *authStub) Register(ctx context.Context, req authdomain.RegisterRequest) (*authdomain.AuthResponse, error) {
	return nil, nil
}

func (a *authStub) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.AuthResponse, error) {
	return nil, nil
}

func (a *authStub) Verify(ctx context.Context, token string) (int64, error) {
	return 0, nil
}

func (a *authStub) Profile(ctx context.Context, id int64) (*authdomain.ProfileResponse, error) {
	return nil, nil
}

func (a *authStub) Profiles(ctx context.Context, ids []int64) (map[int64]authdomain.ProfileResponse, error) {
	result := make(map[int64]authdomain.ProfileResponse, len(ids))
	for _, id := range ids {
		if name, ok := a.usernames[id]; ok {
			result[id] = authdomain.ProfileResponse{Username: name}
		}
	}
	return result, nil
}

type messageFixture struct {
	db     *gorm.DB
	node   *snowflake.Node
	clk    *clock.FakeClock
	svc    domain.Service
	buyer  snowflake.ID
	seller snowflake.ID
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	for _, stmt := range []string{
		`CREATE TABLE orders (
			id BIGINT PRIMARY KEY,
			reference TEXT NOT NULL UNIQUE,
			product_id BIGINT NOT NULL,
			buyer_id BIGINT NOT NULL,
			seller_id BIGINT NOT NULL,
			shipping_address_id BIGINT,
			status TEXT NOT NULL DEFAULT 'pending_payment',
			total_amount NUMERIC NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE messages (
			id BIGINT PRIMARY KEY,
			product_id BIGINT NOT NULL,
			order_id BIGINT NOT NULL,
			sender_id BIGINT NOT NULL,
			receiver_id BIGINT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
	} {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	buyer := node.Generate()
	seller := node.Generate()

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Repo:        messagerepository.Provide(),
		Orders:      orderrepository.Provide(),
		Auth:        &authStub{usernames: map[int64]string{buyer.Int64(): "ana", seller.Int64(): "blas"}},
		Marketplace: config.NewStaticMarketplaceConfigHolder(config.DefaultMarketplaceConfig()),
	})

	return &messageFixture{db: db, node: node, clk: clk, svc: svc, buyer: buyer, seller: seller}
}

func (f *messageFixture) seedOrder(t *testing.T, status orderdomain.OrderStatus) (productID snowflake.ID) {
	t.Helper()
	productID = f.node.Generate()
	order := &orderdomain.Order{
		ID:          f.node.Generate().Int64(),
		Reference:   fmt.Sprintf("REF-%s", productID.String()),
		ProductID:   productID.Int64(),
		BuyerID:     f.buyer.Int64(),
		SellerID:    f.seller.Int64(),
		Status:      status,
		TotalAmount: 40,
		CreatedAt:   f.clk.Now(),
		UpdatedAt:   f.clk.Now(),
	}
	if err := f.db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return productID
}

func (f *messageFixture) buyerCtx() context.Context {
	return authcontext.WithUserID(context.Background(), f.buyer.Int64())
}

func (f *messageFixture) sellerCtx() context.Context {
	return authcontext.WithUserID(context.Background(), f.seller.Int64())
}

func TestSendAllowedByOrderStatus(t *testing.T) {
	f := newMessageFixture(t)
	productID := f.seedOrder(t, orderdomain.StatusPendingShipping)

	sent, err := f.svc.Send(f.buyerCtx(), domain.SendRequest{
		ProductID:  productID.String(),
		ReceiverID: f.seller.String(),
		Content:    "¿Cuándo lo envías?",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent.SenderUsername != "ana" {
		t.Fatalf("expected sender username, got %q", sent.SenderUsername)
	}

	reply, err := f.svc.Send(f.sellerCtx(), domain.SendRequest{
		ProductID:  productID.String(),
		ReceiverID: f.buyer.String(),
		Content:    "Mañana por la tarde.",
	})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply.SenderUsername != "blas" {
		t.Fatalf("expected seller username, got %q", reply.SenderUsername)
	}
}

func TestSendBlockedBeforeShippingPhase(t *testing.T) {
	f := newMessageFixture(t)
	productID := f.seedOrder(t, orderdomain.StatusPendingPayment)

	_, err := f.svc.Send(f.buyerCtx(), domain.SendRequest{
		ProductID:  productID.String(),
		ReceiverID: f.seller.String(),
		Content:    "hola",
	})
	if err != domain.ErrNotAllowed {
		t.Fatalf("expected messaging_not_allowed, got %v", err)
	}
}

func TestSendRejectsOutsiders(t *testing.T) {
	f := newMessageFixture(t)
	productID := f.seedOrder(t, orderdomain.StatusShipped)
	outsider := f.node.Generate()

	_, err := f.svc.Send(authcontext.WithUserID(context.Background(), outsider.Int64()), domain.SendRequest{
		ProductID:  productID.String(),
		ReceiverID: f.seller.String(),
		Content:    "hola",
	})
	if err != domain.ErrNotAllowed {
		t.Fatalf("expected messaging_not_allowed for outsider sender, got %v", err)
	}

	_, err = f.svc.Send(f.buyerCtx(), domain.SendRequest{
		ProductID:  productID.String(),
		ReceiverID: outsider.String(),
		Content:    "hola",
	})
	if err != domain.ErrNotAllowed {
		t.Fatalf("expected messaging_not_allowed for outsider receiver, got %v", err)
	}

	_, err = f.svc.Send(f.buyerCtx(), domain.SendRequest{
		ProductID:  productID.String(),
		ReceiverID: f.buyer.String(),
		Content:    "hola",
	})
	if err != domain.ErrSelfMessage {
		t.Fatalf("expected cannot_message_self, got %v", err)
	}
}

func TestConversationParticipantsOnly(t *testing.T) {
	f := newMessageFixture(t)
	productID := f.seedOrder(t, orderdomain.StatusCompleted)

	for i, text := range []string{"todo bien", "gracias"} {
		ctx := f.buyerCtx()
		receiver := f.seller
		if i%2 == 1 {
			ctx = f.sellerCtx()
			receiver = f.buyer
		}
		if _, err := f.svc.Send(ctx, domain.SendRequest{
			ProductID:  productID.String(),
			ReceiverID: receiver.String(),
			Content:    text,
		}); err != nil {
			t.Fatalf("send %q: %v", text, err)
		}
		f.clk.Advance(time.Minute)
	}

	messages, err := f.svc.Conversation(f.buyerCtx(), productID.String())
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Content != "todo bien" {
		t.Fatalf("expected oldest first, got %q", messages[0].Content)
	}

	outsider := authcontext.WithUserID(context.Background(), f.node.Generate().Int64())
	if _, err := f.svc.Conversation(outsider, productID.String()); err != domain.ErrNotParticipant {
		t.Fatalf("expected not_conversation_participant, got %v", err)
	}
}
