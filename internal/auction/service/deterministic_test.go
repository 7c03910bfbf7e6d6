package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rastro/internal/auction/domain"
	auctionrepository "github.com/smallbiznis/rastro/internal/auction/repository"
	"github.com/smallbiznis/rastro/internal/clock"
	"github.com/smallbiznis/rastro/internal/config"
	orderdomain "github.com/smallbiznis/rastro/internal/order/domain"
	orderrepository "github.com/smallbiznis/rastro/internal/order/repository"
	productrepository "github.com/smallbiznis/rastro/internal/product/repository"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSettle_BatchCap_Deterministic(t *testing.T) {
	db := setupAuctionDB(t)
	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	marketplace := config.DefaultMarketplaceConfig()
	marketplace.SettlementBatchSize = 2

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Repo:        auctionrepository.Provide(),
		Products:    productrepository.Provide(),
		Orders:      orderrepository.Provide(),
		Marketplace: config.NewStaticMarketplaceConfigHolder(marketplace),
	})

	f := &auctionFixture{db: db, node: node, clk: clk, svc: svc, seller: node.Generate()}
	ended := clk.Now().Add(-time.Hour)

	bidder := node.Generate()
	for i := 0; i < 3; i++ {
		id := f.seedAuction(t, 10, ended)
		f.seedBid(t, id, bidder, 25, ended.Add(-time.Minute))
	}

	// First sweep settles only up to the configured batch size.
	report, err := svc.Settle(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 0, report.Failed)
	assert.Len(t, report.Details, 2)

	// Second sweep picks up the remainder.
	report, err = svc.Settle(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, domain.OutcomeSold, report.Details[0].Outcome)

	// A third sweep finds nothing left to do.
	report, err = svc.Settle(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, report.Details)

	var orders []orderdomain.Order
	assert.NoError(t, db.Find(&orders).Error)
	assert.Len(t, orders, 3)
	for _, o := range orders {
		assert.Equal(t, orderdomain.StatusPendingPayment, o.Status)
		assert.Equal(t, bidder.Int64(), o.BuyerID)
		assert.Equal(t, 25.0, o.TotalAmount)
	}
}
