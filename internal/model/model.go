// Package model содержит доменные сущности магазина.
package model

import "time"

// User представляет зарегистрированного пользователя магазина.
// PasswordHash никогда не отдаётся наружу через API.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// PurchaseStatus описывает статус оплаты покупки.
type PurchaseStatus string

const (
	PurchaseStatusPaid PurchaseStatus = "paid"
)

// DefaultPaymentProvider — провайдер платежей по умолчанию.
const DefaultPaymentProvider = "external"

// Стоимость доставки и сумма налога по умолчанию.
const (
	DefaultShippingCost float64 = 3
	DefaultTaxAmount    float64 = 0
)

// PurchaseItem описывает одну позицию в составе покупки.
type PurchaseItem struct {
	Name      string  `json:"nombre"`
	Quantity  int     `json:"cantidad"`
	UnitPrice float64 `json:"precio"`
}

// Purchase описывает завершённую покупку.
// UserID равен nil для гостевой покупки без авторизации.
type Purchase struct {
	ID               int64          `json:"id"`
	UserID           *int64         `json:"usuario"`
	Items            []PurchaseItem `json:"productos"`
	Total            float64        `json:"total"`
	ShippingAddress  string         `json:"direccion"`
	Phone            string         `json:"telefono"`
	Status           PurchaseStatus `json:"estado"`
	PaymentProvider  string         `json:"metodoPago"`
	PaymentReference string         `json:"referenciaPago,omitempty"`
	Notes            string         `json:"notas,omitempty"`
	ShippingCost     float64        `json:"envio"`
	TaxAmount        float64        `json:"impuestos"`
	CreatedAt        time.Time      `json:"fecha"`
}

// Product описывает товар каталога.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"nombre"`
	Description string  `json:"descripcion,omitempty"`
	Image       string  `json:"imagen,omitempty"`
	Price       float64 `json:"precio"`
	Code        string  `json:"codigo,omitempty"`
}
