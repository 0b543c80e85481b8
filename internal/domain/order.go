package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperror "pharmacart/internal/errors"
)

// OrderStatus é o estado do pedido.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// validNext lista as transições permitidas por UpdateStatus.
// CANCELLED não aparece aqui: o cancelamento tem fluxo próprio (com devolução de estoque).
var validNext = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed},
	OrderConfirmed: {OrderShipped},
	OrderShipped:   {OrderDelivered},
	OrderDelivered: {OrderCompleted},
}

// Valid informa se o status é conhecido.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// CanTransitionTo informa se a transição direta é permitida.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, n := range validNext[s] {
		if n == next {
			return true
		}
	}
	return false
}

// Order é o pedido com seus itens.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	CustomerName    string          `json:"customerName"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	ShippingAddress string          `json:"shippingAddress"`
	City            string          `json:"city"`
	PostalCode      string          `json:"postalCode"`
	PaymentMethod   string          `json:"paymentMethod"`
	PrescriptionID  string          `json:"prescriptionId,omitempty"`
	Status          OrderStatus     `json:"status"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Items           []OrderItem     `json:"items"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem é uma linha do pedido. Size guarda exatamente o tamanho pedido e
// não muda depois: é ele que define o bucket da devolução no cancelamento.
type OrderItem struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"orderId"`
	Item      ItemRef         `json:"item"`
	ItemName  string          `json:"itemName"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderLineInput é uma linha no payload de pedido.
type OrderLineInput struct {
	ProductID string `json:"productId,omitempty"`
	MbpID     string `json:"mbpId,omitempty"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// Ref resolve a referência da linha.
func (l OrderLineInput) Ref() (ItemRef, error) {
	return ParseItemRef(l.ProductID, l.MbpID)
}

// OrderRequest é o payload de criação de pedido (e de checkout, sem Items).
type OrderRequest struct {
	CustomerName    string           `json:"customerName"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone"`
	ShippingAddress string           `json:"shippingAddress"`
	City            string           `json:"city"`
	PostalCode      string           `json:"postalCode"`
	PaymentMethod   string           `json:"paymentMethod"`
	PrescriptionID  string           `json:"prescriptionId,omitempty"`
	Items           []OrderLineInput `json:"items"`
}

// ValidateCustomer confere os dados de entrega e contato.
func (r OrderRequest) ValidateCustomer() error {
	if strings.TrimSpace(r.CustomerName) == "" {
		return apperror.NewValidationError("O nome do cliente é obrigatório.")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return apperror.NewValidationError("E-mail inválido.")
	}
	if strings.TrimSpace(r.ShippingAddress) == "" {
		return apperror.NewValidationError("O endereço de entrega é obrigatório.")
	}
	if id := strings.TrimSpace(r.PrescriptionID); id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return apperror.NewValidationError("O ID da receita deve ser um UUID válido.")
		}
	}
	return nil
}

// OrderFilter são os filtros da listagem administrativa.
type OrderFilter struct {
	Status OrderStatus
	UserID string
	Page
}

// OrderStatusUpdate é o payload de mudança de status.
type OrderStatusUpdate struct {
	Status OrderStatus `json:"status"`
}

// OrderPage é uma página da listagem de pedidos.
type OrderPage struct {
	Items []Order `json:"items"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
}
