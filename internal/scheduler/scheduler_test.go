package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auctiondomain "github.com/smallbiznis/rastro/internal/auction/domain"
	auctionrepository "github.com/smallbiznis/rastro/internal/auction/repository"
	auctionservice "github.com/smallbiznis/rastro/internal/auction/service"
	biddomain "github.com/smallbiznis/rastro/internal/bid/domain"
	"github.com/smallbiznis/rastro/internal/clock"
	"github.com/smallbiznis/rastro/internal/config"
	orderdomain "github.com/smallbiznis/rastro/internal/order/domain"
	orderrepository "github.com/smallbiznis/rastro/internal/order/repository"
	productdomain "github.com/smallbiznis/rastro/internal/product/domain"
	productrepository "github.com/smallbiznis/rastro/internal/product/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func createMarketplaceSchema(t *testing.T, db *gorm.DB) {
	t.Helper()

	for _, stmt := range []string{
		`CREATE TABLE products (
			id BIGINT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			seller_id BIGINT NOT NULL,
			buyer_id BIGINT,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price NUMERIC NOT NULL,
			type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'available',
			bid_count INTEGER NOT NULL DEFAULT 0,
			auction_ends_at DATETIME,
			category TEXT,
			location TEXT,
			images TEXT,
			metadata TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE bids (
			id BIGINT PRIMARY KEY,
			product_id BIGINT NOT NULL,
			bidder_id BIGINT NOT NULL,
			amount NUMERIC NOT NULL,
			created_at DATETIME NOT NULL
		)`,
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
		`CREATE UNIQUE INDEX idx_orders_active_product
			ON orders (product_id) WHERE status <> 'completed'`,
	} {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
}

type settleStub struct {
	calls  int
	report *auctiondomain.SettleReport
	err    error
}

func (s *settleStub) Settle(ctx context.Context) (*auctiondomain.SettleReport, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.report != nil {
		return s.report, nil
	}
	return &auctiondomain.SettleReport{}, nil
}

func newTestScheduler(t *testing.T, db *gorm.DB, svc auctiondomain.Service, cfg Config) (*Scheduler, *clock.FakeClock) {
	t.Helper()

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	sched, err := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		AuctionSvc:  svc,
		Marketplace: config.NewStaticMarketplaceConfigHolder(config.DefaultMarketplaceConfig()),
		Config:      cfg,
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return sched, clk
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Params{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRunOnceSettlesExpiredAuctions(t *testing.T) {
	db := openTestDB(t)
	createMarketplaceSchema(t, db)

	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	holder := config.NewStaticMarketplaceConfigHolder(config.DefaultMarketplaceConfig())

	auctions := auctionservice.New(auctionservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Repo:        auctionrepository.Provide(),
		Products:    productrepository.Provide(),
		Orders:      orderrepository.Provide(),
		Marketplace: holder,
	})

	seller := node.Generate()
	bidder := node.Generate()
	ends := clk.Now().Add(-time.Minute)
	product := &productdomain.Product{
		ID:            node.Generate().Int64(),
		Slug:          "cartel-vintage",
		SellerID:      seller.Int64(),
		Name:          "Cartel vintage",
		Price:         10,
		Type:          productdomain.TypeAuction,
		Status:        productdomain.StatusAvailable,
		AuctionEndsAt: &ends,
		CreatedAt:     clk.Now().Add(-24 * time.Hour),
		UpdatedAt:     clk.Now().Add(-24 * time.Hour),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	bid := &biddomain.Bid{
		ID:        node.Generate().Int64(),
		ProductID: product.ID,
		BidderID:  bidder.Int64(),
		Amount:    42,
		CreatedAt: ends.Add(-time.Hour),
	}
	if err := db.Create(bid).Error; err != nil {
		t.Fatalf("seed bid: %v", err)
	}

	sched, _ := newTestScheduler(t, db, auctions, Config{})

	if err := sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	var order orderdomain.Order
	if err := db.Where("product_id = ?", product.ID).First(&order).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.BuyerID != bidder.Int64() {
		t.Fatalf("order buyer = %d, want %d", order.BuyerID, bidder.Int64())
	}
	if order.TotalAmount != 42 {
		t.Fatalf("order total = %v, want 42", order.TotalAmount)
	}
	if order.Status != orderdomain.StatusPendingPayment {
		t.Fatalf("order status = %s", order.Status)
	}

	var got productdomain.Product
	if err := db.First(&got, product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if got.Status != productdomain.StatusPendingPayment {
		t.Fatalf("product status = %s", got.Status)
	}
}

func TestRunOnceHonorsEnabledJobs(t *testing.T) {
	db := openTestDB(t)

	stub := &settleStub{}
	sched, _ := newTestScheduler(t, db, stub, Config{EnabledJobs: []string{"other_job"}})
	if err := sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("settle called %d times, want 0", stub.calls)
	}

	sched, _ = newTestScheduler(t, db, stub, Config{EnabledJobs: []string{"Settle_Auctions"}})
	if err := sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("settle called %d times, want 1", stub.calls)
	}
}

func TestRunOnceReportsSweepFailure(t *testing.T) {
	db := openTestDB(t)

	stub := &settleStub{err: errors.New("db unavailable")}
	sched, _ := newTestScheduler(t, db, stub, Config{})

	err := sched.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected error from failed sweep")
	}
	if !strings.Contains(err.Error(), "settle_auctions") {
		t.Fatalf("error %q does not name the job", err)
	}
}

func TestRunOnceToleratesTimeout(t *testing.T) {
	db := openTestDB(t)

	stub := &settleStub{err: context.DeadlineExceeded}
	sched, _ := newTestScheduler(t, db, stub, Config{})

	if err := sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("timeout should be tolerated, got %v", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.RunInterval != time.Minute {
		t.Fatalf("run interval = %v", cfg.RunInterval)
	}
	if cfg.JobTimeout != 30*time.Second {
		t.Fatalf("job timeout = %v", cfg.JobTimeout)
	}

	custom := Config{RunInterval: 5 * time.Second, JobTimeout: time.Second}.withDefaults()
	if custom.RunInterval != 5*time.Second || custom.JobTimeout != time.Second {
		t.Fatalf("custom config overridden: %+v", custom)
	}
}
