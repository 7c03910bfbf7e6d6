package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/rastro/internal/auth/domain"
	"github.com/smallbiznis/rastro/internal/authcontext"
	biddomain "github.com/smallbiznis/rastro/internal/bid/domain"
	"github.com/smallbiznis/rastro/internal/config"
	orderdomain "github.com/smallbiznis/rastro/internal/order/domain"
	productdomain "github.com/smallbiznis/rastro/internal/product/domain"
	shippingdomain "github.com/smallbiznis/rastro/internal/shippingaddress/domain"
)

type fakeAuthService struct {
	verifyUserID int64
	verifyErr    error
	verifyCalls  int
	profile      *authdomain.ProfileResponse
}

func (f *fakeAuthService) Register(ctx context.Context, req authdomain.RegisterRequest) (*authdomain.AuthResponse, error) {
	_ = ctx
	_ = req
	return &authdomain.AuthResponse{Token: "token"}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.AuthResponse, error) {
	_ = ctx
	_ = req
	return &authdomain.AuthResponse{Token: "token"}, nil
}

func (f *fakeAuthService) Verify(ctx context.Context, token string) (int64, error) {
	f.verifyCalls++
	_ = ctx
	_ = token
	if f.verifyErr != nil {
		return 0, f.verifyErr
	}
	return f.verifyUserID, nil
}

func (f *fakeAuthService) Profile(ctx context.Context, id int64) (*authdomain.ProfileResponse, error) {
	_ = ctx
	_ = id
	if f.profile == nil {
		return nil, authdomain.ErrNotFound
	}
	return f.profile, nil
}

func (f *fakeAuthService) Profiles(ctx context.Context, ids []int64) (map[int64]authdomain.ProfileResponse, error) {
	_ = ctx
	_ = ids
	return map[int64]authdomain.ProfileResponse{}, nil
}

type fakeBidService struct {
	placeErr      error
	resp          *biddomain.PlaceResponse
	listProductID string
}

func (f *fakeBidService) Place(ctx context.Context, req biddomain.PlaceRequest) (*biddomain.PlaceResponse, error) {
	_ = ctx
	_ = req
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &biddomain.PlaceResponse{}, nil
}

func (f *fakeBidService) ListByProduct(ctx context.Context, productID string) ([]biddomain.Response, error) {
	_ = ctx
	f.listProductID = productID
	return []biddomain.Response{}, nil
}

type fakeProductService struct {
	getErr error
}

func (f *fakeProductService) Create(ctx context.Context, req productdomain.CreateRequest) (*productdomain.Response, error) {
	_ = ctx
	_ = req
	return &productdomain.Response{}, nil
}

func (f *fakeProductService) Get(ctx context.Context, id string) (*productdomain.Response, error) {
	_ = ctx
	_ = id
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &productdomain.Response{ID: id}, nil
}

func (f *fakeProductService) GetBySlug(ctx context.Context, slug string) (*productdomain.Response, error) {
	_ = ctx
	_ = slug
	return &productdomain.Response{Slug: slug}, nil
}

func (f *fakeProductService) Update(ctx context.Context, req productdomain.UpdateRequest) (*productdomain.Response, error) {
	_ = ctx
	_ = req
	return &productdomain.Response{}, nil
}

func (f *fakeProductService) Delete(ctx context.Context, id string) error {
	_ = ctx
	_ = id
	return nil
}

func (f *fakeProductService) List(ctx context.Context, req productdomain.ListRequest) (*productdomain.ListResponse, error) {
	_ = ctx
	_ = req
	return &productdomain.ListResponse{}, nil
}

func (f *fakeProductService) Categories(ctx context.Context) ([]string, error) {
	_ = ctx
	return []string{"electronics"}, nil
}

func (f *fakeProductService) UserProducts(ctx context.Context) ([]productdomain.Response, error) {
	_ = ctx
	return nil, nil
}

type fakeOrderService struct {
	receipt    *orderdomain.ReceiptFile
	receiptErr error
}

func (f *fakeOrderService) Buy(ctx context.Context, productID string) (*orderdomain.Response, error) {
	_ = ctx
	_ = productID
	return &orderdomain.Response{}, nil
}

func (f *fakeOrderService) Checkout(ctx context.Context, req orderdomain.CheckoutRequest) (*orderdomain.Response, error) {
	_ = ctx
	_ = req
	return &orderdomain.Response{}, nil
}

func (f *fakeOrderService) Pay(ctx context.Context, orderID string) (*orderdomain.Response, error) {
	_ = ctx
	_ = orderID
	return &orderdomain.Response{}, nil
}

func (f *fakeOrderService) Ship(ctx context.Context, orderID string) (*orderdomain.Response, error) {
	_ = ctx
	_ = orderID
	return &orderdomain.Response{}, nil
}

func (f *fakeOrderService) Complete(ctx context.Context, orderID string) (*orderdomain.Response, error) {
	_ = ctx
	_ = orderID
	return &orderdomain.Response{}, nil
}

func (f *fakeOrderService) MarkAsPaid(ctx context.Context, productID string) (*productdomain.Response, error) {
	_ = ctx
	_ = productID
	return &productdomain.Response{}, nil
}

func (f *fakeOrderService) Get(ctx context.Context, orderID string) (*orderdomain.Response, error) {
	_ = ctx
	_ = orderID
	return &orderdomain.Response{}, nil
}

func (f *fakeOrderService) List(ctx context.Context) ([]orderdomain.Response, error) {
	_ = ctx
	return nil, nil
}

func (f *fakeOrderService) ShippingDetails(ctx context.Context, orderID string) (*shippingdomain.Response, error) {
	_ = ctx
	_ = orderID
	return nil, nil
}

func (f *fakeOrderService) Receipt(ctx context.Context, orderID string) (*orderdomain.ReceiptFile, error) {
	_ = ctx
	_ = orderID
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	return f.receipt, nil
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	authSvc := &fakeAuthService{verifyUserID: 7}
	srv := &Server{authSvc: authSvc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/private", srv.AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if authSvc.verifyCalls != 0 {
		t.Fatal("expected token verification to be skipped without a header")
	}
}

func TestAuthRequiredInjectsUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{authSvc: &fakeAuthService{verifyUserID: 42}}

	var seen int64
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/private", srv.AuthRequired(), func(c *gin.Context) {
		userID, ok := authcontext.UserIDFromContext(c.Request.Context())
		if ok {
			seen = userID.Int64()
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if seen != 42 {
		t.Fatalf("handler saw user %d, want 42", seen)
	}
}

func TestAuthRequiredMapsInvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{authSvc: &fakeAuthService{verifyErr: authdomain.ErrInvalidToken}}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/private", srv.AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer expired")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAdminRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(token string) *gin.Engine {
		srv := &Server{cfg: config.Config{AdminAPIToken: token}}
		router := gin.New()
		router.Use(ErrorHandlingMiddleware())
		router.POST("/admin", srv.AdminRequired(), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
		return router
	}

	cases := []struct {
		name       string
		configured string
		header     string
		want       int
	}{
		{"valid token", "sekrit", "Bearer sekrit", http.StatusOK},
		{"wrong token", "sekrit", "Bearer nope", http.StatusForbidden},
		{"missing header", "sekrit", "", http.StatusForbidden},
		{"admin disabled", "", "Bearer anything", http.StatusForbidden},
	}
	for _, tc := range cases {
		router := newRouter(tc.configured)
		req := httptest.NewRequest(http.MethodPost, "/admin", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, resp.Code)
		}
	}
}

func TestPlaceBidErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"too low", biddomain.ErrBidTooLow, http.StatusBadRequest},
		{"lost race", biddomain.ErrConflict, http.StatusConflict},
		{"auction over", biddomain.ErrAuctionEnded, http.StatusConflict},
		{"own listing", biddomain.ErrOwnListing, http.StatusForbidden},
		{"rate limited", biddomain.ErrRateLimited, http.StatusTooManyRequests},
		{"missing product", biddomain.ErrProductNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		srv := &Server{bidSvc: &fakeBidService{placeErr: tc.err}}
		router := gin.New()
		router.Use(ErrorHandlingMiddleware())
		router.POST("/api/bids", srv.PlaceBid)

		req := httptest.NewRequest(http.MethodPost, "/api/bids", bytes.NewBufferString(`{"product_id":"1","amount":10}`))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		if resp.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, resp.Code)
		}
	}
}

func TestValidationErrorPayloadShape(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{bidSvc: &fakeBidService{placeErr: biddomain.ErrBidTooLow}}
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/bids", srv.PlaceBid)

	req := httptest.NewRequest(http.MethodPost, "/api/bids", bytes.NewBufferString(`{"product_id":"1","amount":1}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Type != "validation_error" {
		t.Fatalf("error type = %q", body.Error.Type)
	}
	if len(body.Error.Errors) != 1 || body.Error.Errors[0].Code != "bid_too_low" {
		t.Fatalf("unexpected validation errors %+v", body.Error.Errors)
	}
}

func TestGetProductNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{productSvc: &fakeProductService{getErr: productdomain.ErrNotFound}}
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/products/:id", srv.GetProductByID)

	req := httptest.NewRequest(http.MethodGet, "/api/products/999", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestListBidsRequiresProductID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{bidSvc: &fakeBidService{}}
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/bids", srv.ListBids)

	req := httptest.NewRequest(http.MethodGet, "/api/bids", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestProductRouteDispatch(t *testing.T) {
	gin.SetMode(gin.TestMode)

	bidSvc := &fakeBidService{}
	srv := &Server{
		authSvc:    &fakeAuthService{verifyUserID: 7},
		productSvc: &fakeProductService{getErr: productdomain.ErrNotFound},
		bidSvc:     bidSvc,
		orderSvc:   &fakeOrderService{},
	}
	srv.engine = gin.New()
	srv.engine.Use(ErrorHandlingMiddleware())
	srv.registerAPIRoutes()

	// The static categories segment must win over the :id wildcard.
	req := httptest.NewRequest(http.MethodGet, "/api/products/categories", nil)
	resp := httptest.NewRecorder()
	srv.engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("categories: expected 200, got %d", resp.Code)
	}
	var categoriesBody struct {
		Data []string `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &categoriesBody); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(categoriesBody.Data) != 1 || categoriesBody.Data[0] != "electronics" {
		t.Fatalf("unexpected categories payload %+v", categoriesBody.Data)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/products/123", bytes.NewBufferString(`{"name":"Mesa"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	resp = httptest.NewRecorder()
	srv.engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("put update: expected 200, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/products/123/bids", nil)
	resp = httptest.NewRecorder()
	srv.engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("product bids: expected 200, got %d", resp.Code)
	}
	if bidSvc.listProductID != "123" {
		t.Fatalf("bid history queried for %q, want 123", bidSvc.listProductID)
	}
}

func TestOrderReceiptServesPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{orderSvc: &fakeOrderService{
		receipt: &orderdomain.ReceiptFile{
			FileName: "receipt-01ABC.pdf",
			Content:  []byte("%PDF-1.4"),
		},
	}}
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/orders/:id/receipt", srv.OrderReceipt)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/5/receipt", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("content type = %q", got)
	}
	if got := resp.Header().Get("Content-Disposition"); got != `attachment; filename="receipt-01ABC.pdf"` {
		t.Fatalf("content disposition = %q", got)
	}
	if !bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF-")) {
		t.Fatal("body is not a PDF")
	}
}

func TestOrderReceiptUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{orderSvc: &fakeOrderService{receiptErr: orderdomain.ErrReceiptUnavailable}}
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/orders/:id/receipt", srv.OrderReceipt)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/5/receipt", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}
