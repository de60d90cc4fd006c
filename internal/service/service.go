// Package service реализует бизнес-логику сервиса магазина.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/pizzasmolina/shop-backend/internal/auth"
	"github.com/pizzasmolina/shop-backend/internal/model"
	"github.com/pizzasmolina/shop-backend/internal/payments"
	"github.com/pizzasmolina/shop-backend/internal/repository"
	"github.com/pizzasmolina/shop-backend/internal/validation"
)

// ErrInvalidCredentials возвращается при неверной паре email/пароль.
// Намеренно не различает неизвестный email и неверный пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError описывает ошибку валидации входных данных
// с сообщением для пользователя.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, username, email string, passwordHash []byte) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UpdateUserPassword(ctx context.Context, userID int64, passwordHash []byte) error
	CreatePurchase(ctx context.Context, p *model.Purchase) (int64, error)
	GetPurchasesByUser(ctx context.Context, userID int64) ([]model.Purchase, error)
	GetProducts(ctx context.Context) ([]model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) (int64, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// Mailer описывает контракт почтового релея.
type Mailer interface {
	SendTempPassword(to, username, tempPassword string) (string, error)
}

// PaymentProvider описывает контракт внешнего платёжного провайдера.
type PaymentProvider interface {
	CreateSession(ctx context.Context, items []payments.LineItem, successURL, cancelURL string) (*payments.Session, error)
}

// CartItem описывает позицию корзины в запросе оформления заказа.
type CartItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Service содержит бизнес-логику сервиса магазина.
type Service struct {
	repo     Repository
	tokens   *auth.TokenService
	mailer   Mailer
	payments PaymentProvider

	frontendURL        string
	tempPasswordLength int
}

// NewService создаёт сервис с указанными репозиторием и внешними коллабораторами.
func NewService(repo Repository, tokens *auth.TokenService, mailer Mailer, provider PaymentProvider, frontendURL string, tempPasswordLength int) *Service {
	return &Service{
		repo:               repo,
		tokens:             tokens,
		mailer:             mailer,
		payments:           provider,
		frontendURL:        frontendURL,
		tempPasswordLength: tempPasswordLength,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterUser регистрирует нового пользователя и возвращает сессионный токен.
// Валидация выполняется по порядку: имя, email, пароль; возвращается первая
// нарушенная проверка.
func (s *Service) RegisterUser(ctx context.Context, username, email, password string) (string, error) {
	if !validation.IsValidUsername(username) {
		return "", &ValidationError{Message: "El nombre de usuario es obligatorio."}
	}
	if !validation.IsValidEmail(email) {
		return "", &ValidationError{Message: "El correo electrónico no tiene un formato válido."}
	}
	if !validation.IsValidPassword(password) {
		return "", &ValidationError{Message: "La contraseña debe tener al menos 6 caracteres."}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	userID, err := s.repo.CreateUser(ctx, username, email, hash)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(userID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return token, nil
}

// AuthenticateUser проверяет email и пароль пользователя и возвращает сессионный токен.
// Неизвестный email и неверный пароль дают одну и ту же ошибку ErrInvalidCredentials;
// сбой хранилища — отдельная ошибка, не подсказка о существовании аккаунта.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (string, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	if !auth.CheckPassword(password, u.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return token, nil
}

// GetUserByID возвращает профиль пользователя по идентификатору.
func (s *Service) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// RecoverPassword генерирует временный пароль, сохраняет его хеш вместо текущего
// и отправляет пароль на почту пользователя. Пароль заменяется до отправки письма:
// при сбое почтового релея новый пароль уже действует.
func (s *Service) RecoverPassword(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", &ValidationError{Message: "Debes ingresar un correo electrónico válido."}
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	tempPassword, err := auth.GenerateTempPassword(s.tempPasswordLength)
	if err != nil {
		return "", fmt.Errorf("generate temp password: %w", err)
	}

	hash, err := auth.HashPassword(tempPassword)
	if err != nil {
		return "", fmt.Errorf("hash temp password: %w", err)
	}

	if err := s.repo.UpdateUserPassword(ctx, u.ID, hash); err != nil {
		return "", err
	}

	previewURL, err := s.mailer.SendTempPassword(u.Email, u.Username, tempPassword)
	if err != nil {
		return "", fmt.Errorf("send recovery mail: %w", err)
	}

	return previewURL, nil
}

// GetPurchasesByUser возвращает покупки пользователя, новые первыми.
func (s *Service) GetPurchasesByUser(ctx context.Context, userID int64) ([]model.Purchase, error) {
	return s.repo.GetPurchasesByUser(ctx, userID)
}

// CreateCheckoutSession создаёт платёжную сессию у провайдера и сохраняет покупку.
// Токен необязателен: невалидный или отсутствующий токен означает гостевую покупку.
// Сессия создаётся до записи покупки, чтобы покупка всегда ссылалась на
// действительный платёж; при сбое записи сессия не отменяется.
func (s *Service) CreateCheckoutSession(ctx context.Context, cart []CartItem, token, address, phone, notes string) (string, error) {
	if address == "" || phone == "" {
		return "", &ValidationError{Message: "La dirección y el teléfono son obligatorios."}
	}
	if len(cart) == 0 {
		return "", &ValidationError{Message: "El carrito está vacío."}
	}

	lineItems := make([]payments.LineItem, 0, len(cart))
	for _, item := range cart {
		lineItems = append(lineItems, payments.LineItem{
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitAmount: int64(math.Round(item.Price * 100)),
		})
	}

	session, err := s.payments.CreateSession(ctx, lineItems,
		s.frontendURL+"/success", s.frontendURL+"/cart")
	if err != nil {
		return "", err
	}

	var userID *int64
	if token != "" {
		if id, err := s.tokens.Verify(token); err == nil {
			userID = &id
		}
	}

	var total float64
	items := make([]model.PurchaseItem, 0, len(cart))
	for _, item := range cart {
		total += item.Price * float64(item.Quantity)
		items = append(items, model.PurchaseItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}

	purchase := &model.Purchase{
		UserID:           userID,
		Items:            items,
		Total:            total,
		ShippingAddress:  address,
		Phone:            phone,
		Status:           model.PurchaseStatusPaid,
		PaymentProvider:  model.DefaultPaymentProvider,
		PaymentReference: session.ID,
		Notes:            notes,
		ShippingCost:     model.DefaultShippingCost,
		TaxAmount:        model.DefaultTaxAmount,
	}

	if _, err := s.repo.CreatePurchase(ctx, purchase); err != nil {
		return "", fmt.Errorf("create purchase: %w", err)
	}

	return session.URL, nil
}

// GetProducts возвращает все товары каталога.
func (s *Service) GetProducts(ctx context.Context) ([]model.Product, error) {
	return s.repo.GetProducts(ctx)
}

// CreateProduct добавляет товар в каталог.
func (s *Service) CreateProduct(ctx context.Context, p *model.Product) (int64, error) {
	if p.Name == "" || p.Price <= 0 {
		return 0, &ValidationError{Message: "El nombre y el precio del producto son obligatorios."}
	}
	return s.repo.CreateProduct(ctx, p)
}

// DeleteProduct удаляет товар по идентификатору.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.DeleteProduct(ctx, id)
}
