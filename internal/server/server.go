package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auctiondomain "github.com/smallbiznis/rastro/internal/auction/domain"
	authdomain "github.com/smallbiznis/rastro/internal/auth/domain"
	biddomain "github.com/smallbiznis/rastro/internal/bid/domain"
	"github.com/smallbiznis/rastro/internal/config"
	messagedomain "github.com/smallbiznis/rastro/internal/message/domain"
	"github.com/smallbiznis/rastro/internal/observability"
	obsmiddleware "github.com/smallbiznis/rastro/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/rastro/internal/observability/metrics"
	obstracing "github.com/smallbiznis/rastro/internal/observability/tracing"
	orderdomain "github.com/smallbiznis/rastro/internal/order/domain"
	productdomain "github.com/smallbiznis/rastro/internal/product/domain"
	questiondomain "github.com/smallbiznis/rastro/internal/question/domain"
	shippingdomain "github.com/smallbiznis/rastro/internal/shippingaddress/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	genID      *snowflake.Node
	authSvc    authdomain.Service
	productSvc productdomain.Service
	bidSvc     biddomain.Service
	auctionSvc auctiondomain.Service
	orderSvc   orderdomain.Service
	addressSvc shippingdomain.Service
	questSvc   questiondomain.Service
	messageSvc messagedomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	GenID      *snowflake.Node
	AuthSvc    authdomain.Service
	ProductSvc productdomain.Service
	BidSvc     biddomain.Service
	AuctionSvc auctiondomain.Service
	OrderSvc   orderdomain.Service
	AddressSvc shippingdomain.Service
	QuestSvc   questiondomain.Service
	MessageSvc messagedomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		genID:      p.GenID,
		authSvc:    p.AuthSvc,
		productSvc: p.ProductSvc,
		bidSvc:     p.BidSvc,
		auctionSvc: p.AuctionSvc,
		orderSvc:   p.OrderSvc,
		addressSvc: p.AddressSvc,
		questSvc:   p.QuestSvc,
		messageSvc: p.MessageSvc,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/register", s.Register)
	auth.POST("/login", s.Login)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Listings --------
	api.GET("/products", s.ListProducts)
	api.POST("/products", s.AuthRequired(), s.CreateProduct)
	api.GET("/products/categories", s.ListCategories)
	api.GET("/products/:id", s.GetProductByID)
	api.GET("/products/slug/:slug", s.GetProductBySlug)
	api.PUT("/products/:id", s.AuthRequired(), s.UpdateProduct)
	api.PATCH("/products/:id", s.AuthRequired(), s.UpdateProduct)
	api.DELETE("/products/:id", s.AuthRequired(), s.DeleteProduct)
	api.GET("/categories", s.ListCategories)
	api.GET("/user-products", s.AuthRequired(), s.ListUserProducts)

	// -------- Bidding --------
	api.POST("/bids", s.AuthRequired(), s.PlaceBid)
	api.GET("/bids", s.ListBids)
	api.GET("/products/:id/bids", s.ListProductBids)

	// -------- Orders --------
	api.POST("/products/:id/buy", s.AuthRequired(), s.BuyProduct)
	api.POST("/products/:id/mark-as-paid", s.AuthRequired(), s.MarkProductAsPaid)
	api.POST("/orders", s.AuthRequired(), s.Checkout)
	api.GET("/orders", s.AuthRequired(), s.ListOrders)
	api.GET("/orders/:id", s.AuthRequired(), s.GetOrderByID)
	api.POST("/orders/:id/pay", s.AuthRequired(), s.PayOrder)
	api.POST("/orders/:id/ship", s.AuthRequired(), s.ShipOrder)
	api.POST("/orders/:id/complete", s.AuthRequired(), s.CompleteOrder)
	api.GET("/orders/:id/shipping-details", s.AuthRequired(), s.OrderShippingDetails)
	api.GET("/orders/:id/receipt", s.AuthRequired(), s.OrderReceipt)

	// -------- Shipping addresses --------
	api.POST("/shipping-addresses", s.AuthRequired(), s.CreateShippingAddress)
	api.GET("/shipping-addresses", s.AuthRequired(), s.ListShippingAddresses)

	// -------- Questions --------
	api.POST("/questions", s.AuthRequired(), s.CreateQuestion)
	api.GET("/questions", s.ListQuestions)
	api.PATCH("/questions/:id", s.AuthRequired(), s.AnswerQuestion)

	// -------- Messages --------
	api.POST("/messages", s.AuthRequired(), s.SendMessage)
	api.GET("/messages", s.AuthRequired(), s.ListMessages)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/auctions", s.AdminRequired())

	admin.POST("/process", s.ProcessAuctions)
}
