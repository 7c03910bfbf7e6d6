package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/rastro/internal/authcontext"
	"github.com/smallbiznis/rastro/internal/clock"
	"github.com/smallbiznis/rastro/internal/shippingaddress/domain"
	"github.com/smallbiznis/rastro/internal/shippingaddress/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAddressDB(t *testing.T) *gorm.DB {
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

	stmt := `CREATE TABLE shipping_addresses (
		id BIGINT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		full_name TEXT NOT NULL,
		street TEXT NOT NULL,
		city TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL,
		country TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	)`
	if err := db.Exec(stmt).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func newAddressService(t *testing.T) (domain.Service, *snowflake.Node, *clock.FakeClock) {
	t.Helper()

	db := setupAddressDB(t)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(),
	})
	return svc, node, clk
}

func TestCreateShippingAddress(t *testing.T) {
	svc, node, clk := newAddressService(t)
	ctx := authcontext.WithUserID(context.Background(), node.Generate().Int64())

	resp, err := svc.Create(ctx, domain.CreateRequest{
		FullName:   "  Lucia Fernandez ",
		Street:     "Calle Mayor 12",
		City:       "Madrid",
		PostalCode: "28013",
		Country:    "ES",
		Phone:      "+34 600 000 000",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.FullName != "Lucia Fernandez" {
		t.Fatalf("full name not trimmed: %q", resp.FullName)
	}
	if !resp.CreatedAt.Equal(clk.Now()) {
		t.Fatalf("created_at = %v, want %v", resp.CreatedAt, clk.Now())
	}
}

func TestCreateRequiresAuthAndFields(t *testing.T) {
	svc, node, _ := newAddressService(t)

	valid := domain.CreateRequest{
		FullName:   "Lucia Fernandez",
		Street:     "Calle Mayor 12",
		City:       "Madrid",
		PostalCode: "28013",
		Country:    "ES",
	}

	if _, err := svc.Create(context.Background(), valid); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	ctx := authcontext.WithUserID(context.Background(), node.Generate().Int64())
	for name, mutate := range map[string]func(*domain.CreateRequest){
		"full_name":   func(r *domain.CreateRequest) { r.FullName = "  " },
		"street":      func(r *domain.CreateRequest) { r.Street = "" },
		"city":        func(r *domain.CreateRequest) { r.City = "" },
		"postal_code": func(r *domain.CreateRequest) { r.PostalCode = "" },
		"country":     func(r *domain.CreateRequest) { r.Country = "" },
	} {
		req := valid
		mutate(&req)
		if _, err := svc.Create(ctx, req); !errors.Is(err, domain.ErrMissingField) {
			t.Fatalf("%s: expected ErrMissingField, got %v", name, err)
		}
	}
}

func TestListOwnAddressesNewestFirst(t *testing.T) {
	svc, node, clk := newAddressService(t)
	owner := authcontext.WithUserID(context.Background(), node.Generate().Int64())
	other := authcontext.WithUserID(context.Background(), node.Generate().Int64())

	first, err := svc.Create(owner, domain.CreateRequest{
		FullName: "Lucia Fernandez", Street: "Calle Mayor 12", City: "Madrid",
		PostalCode: "28013", Country: "ES",
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	clk.Advance(time.Hour)
	second, err := svc.Create(owner, domain.CreateRequest{
		FullName: "Lucia Fernandez", Street: "Gran Via 3", City: "Madrid",
		PostalCode: "28014", Country: "ES",
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if _, err := svc.Create(other, domain.CreateRequest{
		FullName: "Marco Rossi", Street: "Via Roma 1", City: "Torino",
		PostalCode: "10121", Country: "IT",
	}); err != nil {
		t.Fatalf("create other: %v", err)
	}

	items, err := svc.List(owner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d addresses, want 2", len(items))
	}
	if items[0].ID != second.ID || items[1].ID != first.ID {
		t.Fatalf("addresses not newest first: %v then %v", items[0].ID, items[1].ID)
	}
}
