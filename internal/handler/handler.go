// Package handler содержит HTTP-обработчики API сервиса магазина.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pizzasmolina/shop-backend/internal/middleware"
	"github.com/pizzasmolina/shop-backend/internal/model"
	"github.com/pizzasmolina/shop-backend/internal/payments"
	"github.com/pizzasmolina/shop-backend/internal/repository"
	"github.com/pizzasmolina/shop-backend/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, username, email, password string) (string, error)
	AuthenticateUser(ctx context.Context, email, password string) (string, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	RecoverPassword(ctx context.Context, email string) (string, error)
	GetPurchasesByUser(ctx context.Context, userID int64) ([]model.Purchase, error)
	CreateCheckoutSession(ctx context.Context, cart []service.CartItem, token, address, phone, notes string) (string, error)
	GetProducts(ctx context.Context) ([]model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) (int64, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// Handler реализует HTTP-обработчики API сервиса магазина.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMensaje(w http.ResponseWriter, status int, mensaje string) {
	writeJSON(w, status, map[string]string{"mensaje": mensaje})
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMensaje(w, http.StatusBadRequest, "Cuerpo de la petición inválido.")
		return
	}

	token, err := h.service.RegisterUser(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			writeMensaje(w, http.StatusBadRequest, vErr.Message)
		case errors.Is(err, repository.ErrEmailExists):
			writeMensaje(w, http.StatusBadRequest, "El usuario ya existe")
		case errors.Is(err, repository.ErrUsernameExists):
			writeMensaje(w, http.StatusBadRequest, "El nombre de usuario ya está en uso")
		default:
			h.logger.Error("register user error", zap.Error(err))
			writeMensaje(w, http.StatusInternalServerError, "Error en el servidor")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"token": token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login выполняет аутентификацию пользователя и выдачу токена.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMensaje(w, http.StatusBadRequest, "Cuerpo de la petición inválido.")
		return
	}

	token, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeMensaje(w, http.StatusBadRequest, "Credenciales inválidas")
			return
		}
		h.logger.Error("login user error", zap.Error(err))
		writeMensaje(w, http.StatusInternalServerError, "Error al iniciar sesión")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// VerifyUser возвращает профиль текущего пользователя без хеша пароля.
func (h *Handler) VerifyUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeMensaje(w, http.StatusUnauthorized, "No token, acceso denegado")
		return
	}

	u, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("verify user error", zap.Error(err), zap.Int64("userID", userID))
		writeMensaje(w, http.StatusInternalServerError, "Error al verificar usuario")
		return
	}

	writeJSON(w, http.StatusOK, map[string]userResponse{
		"usuario": {
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
		},
	})
}

type recoverRequest struct {
	Email string `json:"email"`
}

// RecoverPassword заменяет пароль пользователя временным и отправляет его на почту.
func (h *Handler) RecoverPassword(w http.ResponseWriter, r *http.Request) {
	var req recoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMensaje(w, http.StatusBadRequest, "Debes ingresar un correo electrónico válido.")
		return
	}

	previewURL, err := h.service.RecoverPassword(r.Context(), req.Email)
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			writeMensaje(w, http.StatusBadRequest, vErr.Message)
		case errors.Is(err, repository.ErrUserNotFound):
			writeMensaje(w, http.StatusNotFound, "No existe una cuenta con ese correo.")
		default:
			h.logger.Error("recover password error", zap.Error(err))
			writeMensaje(w, http.StatusInternalServerError, "Error al procesar la solicitud.")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"mensaje": "Se ha enviado un correo con la contraseña temporal.",
		"url":     previewURL,
	})
}

// GetPurchases возвращает историю покупок текущего пользователя, новые первыми.
func (h *Handler) GetPurchases(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeMensaje(w, http.StatusUnauthorized, "No token, acceso denegado")
		return
	}

	purchases, err := h.service.GetPurchasesByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("get purchases error", zap.Error(err), zap.Int64("userID", userID))
		writeMensaje(w, http.StatusInternalServerError, "Error al obtener el historial de compras")
		return
	}

	if purchases == nil {
		purchases = []model.Purchase{}
	}

	writeJSON(w, http.StatusOK, purchases)
}

type checkoutRequest struct {
	Cart      []service.CartItem `json:"cart"`
	Token     string             `json:"token"`
	Direccion string             `json:"direccion"`
	Telefono  string             `json:"telefono"`
	Notas     string             `json:"notas"`
}

// CreateCheckoutSession создаёт платёжную сессию и сохраняет покупку.
// Токен передаётся в теле запроса и необязателен: без него покупка гостевая.
func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Cuerpo de la petición inválido."})
		return
	}

	url, err := h.service.CreateCheckoutSession(r.Context(),
		req.Cart, req.Token, req.Direccion, req.Telefono, req.Notas)
	if err != nil {
		var vErr *service.ValidationError
		var payErr *payments.Error
		switch {
		case errors.As(err, &vErr):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": vErr.Message})
		case errors.As(err, &payErr):
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": payErr.Message})
		default:
			h.logger.Error("checkout error", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error en el servidor"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// GetProducts возвращает все товары каталога.
func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.GetProducts(r.Context())
	if err != nil {
		h.logger.Error("get products error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Error al obtener productos"})
		return
	}

	if products == nil {
		products = []model.Product{}
	}

	writeJSON(w, http.StatusOK, products)
}

// CreateProduct добавляет товар в каталог.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p model.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Error al crear producto"})
		return
	}

	id, err := h.service.CreateProduct(r.Context(), &p)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": vErr.Message})
			return
		}
		h.logger.Error("create product error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Error al crear producto"})
		return
	}

	p.ID = id
	writeJSON(w, http.StatusCreated, p)
}

// DeleteProduct удаляет товар по идентификатору.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Producto no encontrado"})
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Producto no encontrado"})
			return
		}
		h.logger.Error("delete product error", zap.Error(err), zap.Int64("productID", id))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Error al eliminar producto"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Producto eliminado"})
}
