package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/rastro/internal/auth/domain"
	"github.com/smallbiznis/rastro/internal/authcontext"
	"github.com/smallbiznis/rastro/internal/clock"
	obsmetrics "github.com/smallbiznis/rastro/internal/observability/metrics"
	"github.com/smallbiznis/rastro/internal/order/domain"
	productdomain "github.com/smallbiznis/rastro/internal/product/domain"
	"github.com/smallbiznis/rastro/internal/providers/pdf"
	shippingdomain "github.com/smallbiznis/rastro/internal/shippingaddress/domain"
	"github.com/smallbiznis/rastro/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Products  productdomain.Repository
	Addresses shippingdomain.Repository
	Auth      authdomain.Service
	Receipts  pdf.ReceiptRenderer   `optional:"true"`
	Metrics   *obsmetrics.Metrics   `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	products  productdomain.Repository
	addresses shippingdomain.Repository
	auth      authdomain.Service
	receipts  pdf.ReceiptRenderer
	metrics   *obsmetrics.Metrics
	refs      *domain.ReferenceGenerator
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("order.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		products:  p.Products,
		addresses: p.Addresses,
		auth:      p.Auth,
		receipts:  p.Receipts,
		metrics:   p.Metrics,
		refs:      domain.NewReferenceGenerator(),
	}
}

func (s *Service) Buy(ctx context.Context, productID string) (*domain.Response, error) {
	buyerID, ok := authcontext.UserIDFromContext(ctx)
	if !ok || buyerID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	id, err := parseID(productID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var order *domain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := s.products.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		if product.SellerID == buyerID.Int64() {
			return domain.ErrOwnListing
		}
		if product.Type != productdomain.TypeDirectSale || product.Status != productdomain.StatusAvailable {
			return domain.ErrProductUnavailable
		}

		order = &domain.Order{
			ID:          s.genID.Generate().Int64(),
			Reference:   s.refs.Next(now),
			ProductID:   product.ID,
			BuyerID:     buyerID.Int64(),
			SellerID:    product.SellerID,
			Status:      domain.StatusPendingPayment,
			TotalAmount: product.Price,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Create(ctx, tx, order); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrActiveOrderExists
			}
			return err
		}

		rows, err := s.products.BeginSale(ctx, tx, product.ID, buyerID.Int64(), product.Price, productdomain.StatusPendingPayment, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrProductUnavailable
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordOrderAdvanced(ctx, string(domain.StatusPendingPayment))
	s.log.Info("direct purchase started",
		zap.String("order_id", snowflake.ID(order.ID).String()),
		zap.String("product_id", snowflake.ID(order.ProductID).String()),
		zap.String("buyer_id", buyerID.String()),
	)

	resp := toResponse(order)
	return &resp, nil
}

func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (*domain.Response, error) {
	buyerID, ok := authcontext.UserIDFromContext(ctx)
	if !ok || buyerID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	productID, err := parseID(req.ProductID)
	if err != nil {
		return nil, err
	}
	addressID, err := parseID(req.ShippingAddressID)
	if err != nil {
		return nil, err
	}

	address, err := s.addresses.FindByID(ctx, s.db, addressID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, domain.ErrAddressNotFound
	}
	if address.UserID != buyerID.Int64() {
		return nil, domain.ErrAddressNotOwned
	}

	now := s.clock.Now()
	var order *domain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := s.products.FindByID(ctx, tx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		if product.SellerID == buyerID.Int64() {
			return domain.ErrOwnListing
		}

		existing, err := s.repo.FindActiveByProduct(ctx, tx, productID)
		if err != nil {
			return err
		}

		if existing != nil {
			if existing.BuyerID != buyerID.Int64() {
				return domain.ErrActiveOrderExists
			}
			if existing.Status != domain.StatusPendingPayment {
				return domain.ErrInvalidTransition
			}
			rows, err := s.repo.AttachAddress(ctx, tx, existing.ID, addressID, domain.StatusPendingShipping, now)
			if err != nil {
				return err
			}
			if rows == 0 {
				return domain.ErrInvalidTransition
			}
			rows, err = s.products.AdvanceStatus(ctx, tx,
				productID,
				[]productdomain.ProductStatus{productdomain.StatusPendingPayment},
				productdomain.StatusSold, now)
			if err != nil {
				return err
			}
			if rows == 0 {
				return domain.ErrProductUnavailable
			}
			order, err = s.repo.FindByID(ctx, tx, existing.ID)
			return err
		}

		if product.Status != productdomain.StatusAvailable {
			return domain.ErrProductUnavailable
		}

		order = &domain.Order{
			ID:                s.genID.Generate().Int64(),
			Reference:         s.refs.Next(now),
			ProductID:         product.ID,
			BuyerID:           buyerID.Int64(),
			SellerID:          product.SellerID,
			ShippingAddressID: &addressID,
			Status:            domain.StatusPendingShipping,
			TotalAmount:       product.Price,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.repo.Create(ctx, tx, order); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrActiveOrderExists
			}
			return err
		}

		rows, err := s.products.BeginSale(ctx, tx, product.ID, buyerID.Int64(), product.Price, productdomain.StatusSold, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrProductUnavailable
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordOrderAdvanced(ctx, string(domain.StatusPendingShipping))
	s.log.Info("order checked out",
		zap.String("order_id", snowflake.ID(order.ID).String()),
		zap.String("product_id", snowflake.ID(order.ProductID).String()),
	)

	resp := toResponse(order)
	return &resp, nil
}

func (s *Service) Pay(ctx context.Context, orderID string) (*domain.Response, error) {
	return s.advance(ctx, orderID, advanceSpec{
		callerIsBuyer: true,
		from:          domain.StatusPendingShipping,
		to:            domain.StatusPaid,
		logMsg:        "order paid",
	})
}

func (s *Service) Ship(ctx context.Context, orderID string) (*domain.Response, error) {
	return s.advance(ctx, orderID, advanceSpec{
		callerIsBuyer: false,
		from:          domain.StatusPaid,
		to:            domain.StatusShipped,
		productFrom:   []productdomain.ProductStatus{productdomain.StatusSold, productdomain.StatusPaid},
		productTo:     productdomain.StatusShipped,
		logMsg:        "order shipped",
	})
}

func (s *Service) Complete(ctx context.Context, orderID string) (*domain.Response, error) {
	return s.advance(ctx, orderID, advanceSpec{
		callerIsBuyer: true,
		from:          domain.StatusShipped,
		to:            domain.StatusCompleted,
		productFrom:   []productdomain.ProductStatus{productdomain.StatusShipped},
		productTo:     productdomain.StatusPaid,
		logMsg:        "order completed",
	})
}

// advanceSpec describes one guarded order transition and the product
// transition that rides along with it.
type advanceSpec struct {
	callerIsBuyer bool
	from, to      domain.OrderStatus
	productFrom   []productdomain.ProductStatus
	productTo     productdomain.ProductStatus
	logMsg        string
}

func (s *Service) advance(ctx context.Context, orderID string, spec advanceSpec) (*domain.Response, error) {
	callerID, ok := authcontext.UserIDFromContext(ctx)
	if !ok || callerID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	id, err := parseID(orderID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var order *domain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if spec.callerIsBuyer && current.BuyerID != callerID.Int64() {
			return domain.ErrNotBuyer
		}
		if !spec.callerIsBuyer && current.SellerID != callerID.Int64() {
			return domain.ErrNotSeller
		}
		if current.Status != spec.from {
			return domain.ErrInvalidTransition
		}

		rows, err := s.repo.AdvanceStatus(ctx, tx, id, spec.from, spec.to, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrInvalidTransition
		}

		if spec.productTo != "" {
			rows, err = s.products.AdvanceStatus(ctx, tx, current.ProductID, spec.productFrom, spec.productTo, now)
			if err != nil {
				return err
			}
			if rows == 0 {
				return domain.ErrInvalidTransition
			}
		}

		order, err = s.repo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordOrderAdvanced(ctx, string(spec.to))
	s.log.Info(spec.logMsg,
		zap.String("order_id", snowflake.ID(order.ID).String()),
		zap.String("caller_id", callerID.String()),
	)

	resp := toResponse(order)
	return &resp, nil
}

func (s *Service) MarkAsPaid(ctx context.Context, productID string) (*productdomain.Response, error) {
	callerID, ok := authcontext.UserIDFromContext(ctx)
	if !ok || callerID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	id, err := parseID(productID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var product *productdomain.Product
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.products.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrProductNotFound
		}
		if current.SellerID != callerID.Int64() {
			return domain.ErrNotSeller
		}
		if current.Status != productdomain.StatusSold {
			return domain.ErrInvalidTransition
		}

		rows, err := s.products.AdvanceStatus(ctx, tx, id,
			[]productdomain.ProductStatus{productdomain.StatusSold},
			productdomain.StatusPaid, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrInvalidTransition
		}

		product, err = s.products.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("listing marked as paid",
		zap.String("product_id", snowflake.ID(product.ID).String()),
		zap.String("seller_id", callerID.String()),
	)

	resp := productdomain.ToResponse(product)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (*domain.Response, error) {
	order, _, err := s.loadForParticipant(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(order)
	return &resp, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	userID, ok := authcontext.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return nil, domain.ErrUnauthenticated
	}

	orders, err := s.repo.ByUser(ctx, s.db, userID.Int64())
	if err != nil {
		return nil, err
	}

	items := make([]domain.Response, 0, len(orders))
	for i := range orders {
		items = append(items, toResponse(&orders[i]))
	}
	return items, nil
}

func (s *Service) ShippingDetails(ctx context.Context, orderID string) (*shippingdomain.Response, error) {
	callerID, ok := authcontext.UserIDFromContext(ctx)
	if !ok || callerID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	id, err := parseID(orderID)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if order.SellerID != callerID.Int64() {
		return nil, domain.ErrNotSeller
	}
	if order.ShippingAddressID == nil {
		return nil, domain.ErrNoShippingAddress
	}

	address, err := s.addresses.FindByID(ctx, s.db, *order.ShippingAddressID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, domain.ErrAddressNotFound
	}

	resp := shippingdomain.ToResponse(address)
	return &resp, nil
}

func (s *Service) Receipt(ctx context.Context, orderID string) (*domain.ReceiptFile, error) {
	order, callerID, err := s.loadForParticipant(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case domain.StatusPaid, domain.StatusShipped, domain.StatusCompleted:
	default:
		return nil, domain.ErrReceiptUnavailable
	}
	if s.receipts == nil {
		return nil, domain.ErrReceiptUnavailable
	}

	product, err := s.products.FindByID(ctx, s.db, order.ProductID)
	if err != nil {
		return nil, err
	}
	productName := ""
	if product != nil {
		productName = product.Name
	}

	names := s.usernames(ctx, []int64{order.BuyerID, order.SellerID})

	reader, err := s.receipts.RenderOrderReceipt(ctx, pdf.ReceiptData{
		Reference:      order.Reference,
		ProductName:    productName,
		Amount:         fmt.Sprintf("%.2f EUR", order.TotalAmount),
		BuyerUsername:  names[order.BuyerID],
		SellerUsername: names[order.SellerID],
		OrderStatus:    string(order.Status),
		Date:           order.UpdatedAt.Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	s.log.Info("receipt rendered",
		zap.String("order_id", snowflake.ID(order.ID).String()),
		zap.String("caller_id", callerID.String()),
	)

	return &domain.ReceiptFile{
		FileName: fmt.Sprintf("receipt-%s.pdf", order.Reference),
		Content:  content,
	}, nil
}

func (s *Service) loadForParticipant(ctx context.Context, orderID string) (*domain.Order, snowflake.ID, error) {
	callerID, ok := authcontext.UserIDFromContext(ctx)
	if !ok || callerID == 0 {
		return nil, 0, domain.ErrUnauthenticated
	}
	id, err := parseID(orderID)
	if err != nil {
		return nil, 0, err
	}

	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, 0, err
	}
	if order == nil {
		return nil, 0, domain.ErrNotFound
	}
	if order.BuyerID != callerID.Int64() && order.SellerID != callerID.Int64() {
		return nil, 0, domain.ErrNotParticipant
	}
	return order, callerID, nil
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

func toResponse(o *domain.Order) domain.Response {
	resp := domain.Response{
		ID:          snowflake.ID(o.ID).String(),
		Reference:   o.Reference,
		ProductID:   snowflake.ID(o.ProductID).String(),
		BuyerID:     snowflake.ID(o.BuyerID).String(),
		SellerID:    snowflake.ID(o.SellerID).String(),
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	if o.ShippingAddressID != nil {
		addr := snowflake.ID(*o.ShippingAddressID).String()
		resp.ShippingAddressID = &addr
	}
	return resp
}
