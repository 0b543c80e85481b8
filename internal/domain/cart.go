package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem é uma linha do carrinho de um cliente.
type CartItem struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	Item     ItemRef   `json:"item"`
	Size     string    `json:"size"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"addedAt"`
}

// CartLine é a linha enriquecida com dados do catálogo.
type CartLine struct {
	CartItem
	ItemName  string          `json:"itemName"`
	ImageURL  string          `json:"imageUrl"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartView é o carrinho completo.
type CartView struct {
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// CartItemInput é o payload de inclusão no carrinho.
type CartItemInput struct {
	ProductID string `json:"productId,omitempty"`
	MbpID     string `json:"mbpId,omitempty"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// CartQuantityUpdate altera a quantidade de uma linha.
type CartQuantityUpdate struct {
	Quantity int `json:"quantity"`
}
