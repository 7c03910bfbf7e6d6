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
	biddomain "github.com/smallbiznis/rastro/internal/bid/domain"
	bidrepository "github.com/smallbiznis/rastro/internal/bid/repository"
	"github.com/smallbiznis/rastro/internal/clock"
	productdomain "github.com/smallbiznis/rastro/internal/product/domain"
	productrepository "github.com/smallbiznis/rastro/internal/product/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type authStub struct {
	usernames map[int64]string
	err       error
}

func (a *authStub) Register(ctx context.Context, req authdomain.RegisterRequest) (*authdomain.AuthResponse, error) {
	return nil, a.err
}

func (a *authStub) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.AuthResponse, error) {
	return nil, a.err
}

func (a *authStub) Verify(ctx context.Context, token string) (int64, error) {
	return 0, a.err
}

func (a *authStub) Profile(ctx context.Context, id int64) (*authdomain.ProfileResponse, error) {
	return nil, a.err
}

func (a *authStub) Profiles(ctx context.Context, ids []int64) (map[int64]authdomain.ProfileResponse, error) {
	if a.err != nil {
		return nil, a.err
	}
	result := make(map[int64]authdomain.ProfileResponse, len(ids))
	for _, id := range ids {
		if name, ok := a.usernames[id]; ok {
			result[id] = authdomain.ProfileResponse{
				ID:       snowflake.ID(id).String(),
				Username: name,
			}
		}
	}
	return result, nil
}

func setupBidDB(t *testing.T) *gorm.DB {
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
	} {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func seedAuction(t *testing.T, db *gorm.DB, node *snowflake.Node, sellerID int64, price float64, endsAt *time.Time) snowflake.ID {
	t.Helper()
	id := node.Generate()
	product := &productdomain.Product{
		ID:            id.Int64(),
		Slug:          fmt.Sprintf("auction-%s", id.String()),
		SellerID:      sellerID,
		Name:          "Cámara analógica",
		Price:         price,
		Type:          productdomain.TypeAuction,
		Status:        productdomain.StatusAvailable,
		AuctionEndsAt: endsAt,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed auction: %v", err)
	}
	return id
}

func newBidService(db *gorm.DB, clk clock.Clock, node *snowflake.Node, auth authdomain.Service, repo biddomain.Repository) biddomain.Service {
	return New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clk,
		Repo:     repo,
		Products: productrepository.Provide(),
		Auth:     auth,
	})
}

func TestPlaceBidRaisesPrice(t *testing.T) {
	db := setupBidDB(t)
	node, _ := snowflake.NewNode(1)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	seller := node.Generate()
	bidder := node.Generate()
	ends := clk.Now().Add(time.Hour)
	productID := seedAuction(t, db, node, seller.Int64(), 50, &ends)

	svc := newBidService(db, clk, node, &authStub{usernames: map[int64]string{bidder.Int64(): "puja_master"}}, bidrepository.Provide())

	resp, err := svc.Place(authcontext.WithUserID(context.Background(), bidder.Int64()), biddomain.PlaceRequest{
		ProductID: productID.String(),
		Amount:    60,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if resp.Product.Price != 60 {
		t.Fatalf("expected price 60, got %v", resp.Product.Price)
	}
	if resp.Product.BidCount != 1 {
		t.Fatalf("expected bid_count 1, got %d", resp.Product.BidCount)
	}
	if resp.Bid.BidderUsername != "puja_master" {
		t.Fatalf("expected bidder username, got %q", resp.Bid.BidderUsername)
	}
}

func TestPlaceBidPreconditions(t *testing.T) {
	db := setupBidDB(t)
	node, _ := snowflake.NewNode(1)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	seller := node.Generate()
	bidder := node.Generate()
	ends := clk.Now().Add(time.Hour)
	productID := seedAuction(t, db, node, seller.Int64(), 50, &ends)

	svc := newBidService(db, clk, node, &authStub{}, bidrepository.Provide())
	ctx := authcontext.WithUserID(context.Background(), bidder.Int64())

	if _, err := svc.Place(context.Background(), biddomain.PlaceRequest{ProductID: productID.String(), Amount: 60}); err != biddomain.ErrUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if _, err := svc.Place(ctx, biddomain.PlaceRequest{ProductID: node.Generate().String(), Amount: 60}); err != biddomain.ErrProductNotFound {
		t.Fatalf("expected product_not_found, got %v", err)
	}
	if _, err := svc.Place(authcontext.WithUserID(context.Background(), seller.Int64()), biddomain.PlaceRequest{ProductID: productID.String(), Amount: 60}); err != biddomain.ErrOwnListing {
		t.Fatalf("expected cannot_bid_own_listing, got %v", err)
	}
	if _, err := svc.Place(ctx, biddomain.PlaceRequest{ProductID: productID.String(), Amount: 50}); err != biddomain.ErrBidTooLow {
		t.Fatalf("expected bid_too_low, got %v", err)
	}

	clk.Advance(2 * time.Hour)
	if _, err := svc.Place(ctx, biddomain.PlaceRequest{ProductID: productID.String(), Amount: 60}); err != biddomain.ErrAuctionEnded {
		t.Fatalf("expected auction_ended, got %v", err)
	}
}

func TestPlaceBidOnDirectSale(t *testing.T) {
	db := setupBidDB(t)
	node, _ := snowflake.NewNode(1)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	seller := node.Generate()
	bidder := node.Generate()
	id := node.Generate()
	if err := db.Create(&productdomain.Product{
		ID:        id.Int64(),
		Slug:      fmt.Sprintf("venta-%s", id.String()),
		SellerID:  seller.Int64(),
		Name:      "Mueble",
		Price:     30,
		Type:      productdomain.TypeDirectSale,
		Status:    productdomain.StatusAvailable,
		CreatedAt: clk.Now(),
		UpdatedAt: clk.Now(),
	}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := newBidService(db, clk, node, &authStub{}, bidrepository.Provide())
	ctx := authcontext.WithUserID(context.Background(), bidder.Int64())

	if _, err := svc.Place(ctx, biddomain.PlaceRequest{ProductID: id.String(), Amount: 40}); err != biddomain.ErrNotAuction {
		t.Fatalf("expected not_an_auction, got %v", err)
	}
}

type lostRaceRepo struct {
	biddomain.Repository
}

func (r *lostRaceRepo) RaisePrice(ctx context.Context, db *gorm.DB, productID int64, amount float64, at time.Time) (int64, error) {
	return 0, nil
}

func TestPlaceBidLostRaceRollsBack(t *testing.T) {
	db := setupBidDB(t)
	node, _ := snowflake.NewNode(1)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	seller := node.Generate()
	bidder := node.Generate()
	ends := clk.Now().Add(time.Hour)
	productID := seedAuction(t, db, node, seller.Int64(), 50, &ends)

	svc := newBidService(db, clk, node, &authStub{}, &lostRaceRepo{Repository: bidrepository.Provide()})
	ctx := authcontext.WithUserID(context.Background(), bidder.Int64())

	if _, err := svc.Place(ctx, biddomain.PlaceRequest{ProductID: productID.String(), Amount: 60}); err != biddomain.ErrConflict {
		t.Fatalf("expected bid_conflict, got %v", err)
	}

	var count int64
	if err := db.Model(&biddomain.Bid{}).Count(&count).Error; err != nil {
		t.Fatalf("count bids: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected bid insert rolled back, got %d rows", count)
	}
}

func TestListByProductNewestFirst(t *testing.T) {
	db := setupBidDB(t)
	node, _ := snowflake.NewNode(1)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	seller := node.Generate()
	bidder := node.Generate()
	ends := clk.Now().Add(48 * time.Hour)
	productID := seedAuction(t, db, node, seller.Int64(), 10, &ends)

	svc := newBidService(db, clk, node, &authStub{usernames: map[int64]string{bidder.Int64(): "ana"}}, bidrepository.Provide())
	ctx := authcontext.WithUserID(context.Background(), bidder.Int64())

	for _, amount := range []float64{20, 30, 40} {
		if _, err := svc.Place(ctx, biddomain.PlaceRequest{ProductID: productID.String(), Amount: amount}); err != nil {
			t.Fatalf("place %v: %v", amount, err)
		}
		clk.Advance(time.Minute)
	}

	bids, err := svc.ListByProduct(context.Background(), productID.String())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bids) != 3 {
		t.Fatalf("expected 3 bids, got %d", len(bids))
	}
	if bids[0].Amount != 40 {
		t.Fatalf("expected newest bid first, got %v", bids[0].Amount)
	}
	if bids[0].BidderUsername != "ana" {
		t.Fatalf("expected username enrichment, got %q", bids[0].BidderUsername)
	}
}
