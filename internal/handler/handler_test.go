package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pizzasmolina/shop-backend/internal/auth"
	"github.com/pizzasmolina/shop-backend/internal/middleware"
	"github.com/pizzasmolina/shop-backend/internal/model"
	"github.com/pizzasmolina/shop-backend/internal/repository"
	"github.com/pizzasmolina/shop-backend/internal/service"
)

type stubService struct {
	registerToken string
	registerErr   error

	authToken string
	authErr   error

	user    *model.User
	userErr error

	recoverURL string
	recoverErr error

	purchases    []model.Purchase
	purchasesErr error

	checkoutURL string
	checkoutErr error

	products    []model.Product
	productsErr error
}

func (s *stubService) RegisterUser(ctx context.Context, username, email, password string) (string, error) {
	return s.registerToken, s.registerErr
}

func (s *stubService) AuthenticateUser(ctx context.Context, email, password string) (string, error) {
	return s.authToken, s.authErr
}

func (s *stubService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.user, s.userErr
}

func (s *stubService) RecoverPassword(ctx context.Context, email string) (string, error) {
	return s.recoverURL, s.recoverErr
}

func (s *stubService) GetPurchasesByUser(ctx context.Context, userID int64) ([]model.Purchase, error) {
	return s.purchases, s.purchasesErr
}

func (s *stubService) CreateCheckoutSession(ctx context.Context, cart []service.CartItem, token, address, phone, notes string) (string, error) {
	return s.checkoutURL, s.checkoutErr
}

func (s *stubService) GetProducts(ctx context.Context) ([]model.Product, error) {
	return s.products, s.productsErr
}

func (s *stubService) CreateProduct(ctx context.Context, p *model.Product) (int64, error) {
	return 1, nil
}

func (s *stubService) DeleteProduct(ctx context.Context, id int64) error {
	return nil
}

func newTestHandler(t *testing.T, svc Service) (*Handler, *auth.TokenService) {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	tokens := auth.NewTokenService("test-secret")
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	return NewHandler(svc, logger, authMiddleware), tokens
}

func TestRegister_Created(t *testing.T) {
	svc := &stubService{registerToken: "issued-token"}
	h, _ := newTestHandler(t, svc)

	body, _ := json.Marshal(registerRequest{
		Username: "molina",
		Email:    "molina@example.com",
		Password: "secret123",
	})

	req := httptest.NewRequest(http.MethodPost, "/usuarios/registro", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}

	var resp map[string]string
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["token"] != "issued-token" {
		t.Fatalf("token = %q, want issued-token", resp["token"])
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := &stubService{registerErr: repository.ErrEmailExists}
	h, _ := newTestHandler(t, svc)

	body, _ := json.Marshal(registerRequest{
		Username: "molina",
		Email:    "molina@example.com",
		Password: "secret123",
	})

	req := httptest.NewRequest(http.MethodPost, "/usuarios/registro", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}

	var resp map[string]string
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["mensaje"] != "El usuario ya existe" {
		t.Fatalf("mensaje = %q", resp["mensaje"])
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &stubService{authErr: service.ErrInvalidCredentials}
	h, _ := newTestHandler(t, svc)

	body, _ := json.Marshal(loginRequest{
		Email:    "molina@example.com",
		Password: "wrong",
	})

	req := httptest.NewRequest(http.MethodPost, "/usuarios/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}

	var resp map[string]string
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["mensaje"] != "Credenciales inválidas" {
		t.Fatalf("mensaje = %q", resp["mensaje"])
	}
}

func TestLogin_InternalErrorOnRepositoryFault(t *testing.T) {
	svc := &stubService{authErr: errors.New("get user: connection refused")}
	h, _ := newTestHandler(t, svc)

	body, _ := json.Marshal(loginRequest{
		Email:    "molina@example.com",
		Password: "secret123",
	})

	req := httptest.NewRequest(http.MethodPost, "/usuarios/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusInternalServerError)
	}
}

func TestVerifyUser_StripsPasswordHash(t *testing.T) {
	svc := &stubService{
		user: &model.User{
			ID:           42,
			Username:     "molina",
			Email:        "molina@example.com",
			PasswordHash: []byte("bcrypt-hash-bytes"),
		},
	}
	h, tokens := newTestHandler(t, svc)

	token, err := tokens.Issue(42)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/usuarios/verificar-usuario", nil)
	req.Header.Set(middleware.TokenHeader, token)
	rec := httptest.NewRecorder()

	handlerWithAuth := h.authMiddleware.Middleware(http.HandlerFunc(h.VerifyUser))
	handlerWithAuth.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	raw := rec.Body.String()
	if strings.Contains(raw, "bcrypt-hash-bytes") || strings.Contains(raw, "PasswordHash") {
		t.Fatalf("response leaks password hash: %s", raw)
	}

	var resp map[string]userResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["usuario"].ID != 42 || resp["usuario"].Email != "molina@example.com" {
		t.Fatalf("unexpected usuario: %+v", resp["usuario"])
	}
}

func TestVerifyUser_MissingToken(t *testing.T) {
	h, _ := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/usuarios/verificar-usuario", nil)
	rec := httptest.NewRecorder()

	handlerWithAuth := h.authMiddleware.Middleware(http.HandlerFunc(h.VerifyUser))
	handlerWithAuth.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestRecoverPassword_NotFound(t *testing.T) {
	svc := &stubService{recoverErr: repository.ErrUserNotFound}
	h, _ := newTestHandler(t, svc)

	body, _ := json.Marshal(recoverRequest{Email: "nobody@example.com"})

	req := httptest.NewRequest(http.MethodPost, "/usuarios/recuperar-password", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.RecoverPassword(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestGetPurchases_JSONResponse(t *testing.T) {
	now := time.Now().UTC()
	userID := int64(1)
	svc := &stubService{
		purchases: []model.Purchase{
			{
				ID:               2,
				UserID:           &userID,
				Total:            20,
				ShippingAddress:  "123 St",
				Phone:            "555",
				Status:           model.PurchaseStatusPaid,
				PaymentProvider:  model.DefaultPaymentProvider,
				PaymentReference: "cs_2",
				CreatedAt:        now,
			},
			{
				ID:              1,
				UserID:          &userID,
				Total:           10,
				ShippingAddress: "123 St",
				Phone:           "555",
				Status:          model.PurchaseStatusPaid,
				CreatedAt:       now.Add(-time.Hour),
			},
		},
	}
	h, tokens := newTestHandler(t, svc)

	token, err := tokens.Issue(userID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/usuarios/compras", nil)
	req.Header.Set(middleware.TokenHeader, token)
	rec := httptest.NewRecorder()

	handlerWithAuth := h.authMiddleware.Middleware(http.HandlerFunc(h.GetPurchases))
	handlerWithAuth.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}

	var resp []model.Purchase
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 || resp[0].ID != 2 || resp[1].ID != 1 {
		t.Fatalf("unexpected purchases order: %+v", resp)
	}
}

func TestGetPurchases_EmptyList(t *testing.T) {
	h, tokens := newTestHandler(t, &stubService{})

	token, err := tokens.Issue(1)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/usuarios/compras", nil)
	req.Header.Set(middleware.TokenHeader, token)
	rec := httptest.NewRecorder()

	handlerWithAuth := h.authMiddleware.Middleware(http.HandlerFunc(h.GetPurchases))
	handlerWithAuth.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("body = %q, want []", body)
	}
}

func TestCreateCheckoutSession_OK(t *testing.T) {
	svc := &stubService{checkoutURL: "https://pay.example.com/cs_1"}
	h, _ := newTestHandler(t, svc)

	body, _ := json.Marshal(checkoutRequest{
		Cart:      []service.CartItem{{Name: "Margherita", Price: 10, Quantity: 2}},
		Direccion: "123 St",
		Telefono:  "555",
	})

	req := httptest.NewRequest(http.MethodPost, "/checkout/create-checkout-session", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreateCheckoutSession(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var resp map[string]string
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["url"] != "https://pay.example.com/cs_1" {
		t.Fatalf("url = %q", resp["url"])
	}
}

func TestCreateCheckoutSession_ValidationError(t *testing.T) {
	svc := &stubService{checkoutErr: &service.ValidationError{Message: "La dirección y el teléfono son obligatorios."}}
	h, _ := newTestHandler(t, svc)

	body, _ := json.Marshal(checkoutRequest{
		Cart:     []service.CartItem{{Name: "Margherita", Price: 10, Quantity: 2}},
		Telefono: "555",
	})

	req := httptest.NewRequest(http.MethodPost, "/checkout/create-checkout-session", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreateCheckoutSession(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}

	var resp map[string]string
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] == "" {
		t.Fatalf("expected error message in response")
	}
}
