package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rastro/internal/auction"
	"github.com/smallbiznis/rastro/internal/auth"
	"github.com/smallbiznis/rastro/internal/bid"
	"github.com/smallbiznis/rastro/internal/clock"
	"github.com/smallbiznis/rastro/internal/config"
	"github.com/smallbiznis/rastro/internal/message"
	"github.com/smallbiznis/rastro/internal/migration"
	"github.com/smallbiznis/rastro/internal/observability"
	"github.com/smallbiznis/rastro/internal/order"
	"github.com/smallbiznis/rastro/internal/product"
	"github.com/smallbiznis/rastro/internal/providers"
	"github.com/smallbiznis/rastro/internal/question"
	"github.com/smallbiznis/rastro/internal/ratelimit"
	"github.com/smallbiznis/rastro/internal/scheduler"
	"github.com/smallbiznis/rastro/internal/seed"
	"github.com/smallbiznis/rastro/internal/server"
	"github.com/smallbiznis/rastro/internal/shippingaddress"
	"github.com/smallbiznis/rastro/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		seed.Module,
		ratelimit.Module,
		providers.Module,

		// Marketplace domains
		auth.Module,
		product.Module,
		bid.Module,
		auction.Module,
		order.Module,
		shippingaddress.Module,
		question.Module,
		message.Module,

		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
