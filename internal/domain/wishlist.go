package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WishlistItem é um item salvo na lista de desejos.
type WishlistItem struct {
	ID      string    `json:"id"`
	UserID  string    `json:"userId"`
	Item    ItemRef   `json:"item"`
	AddedAt time.Time `json:"addedAt"`
}

// WishlistLine é o item enriquecido com nome, imagem e preço base.
type WishlistLine struct {
	WishlistItem
	ItemName string          `json:"itemName"`
	ImageURL string          `json:"imageUrl"`
	Price    decimal.Decimal `json:"price"`
}

// WishlistInput é o payload de inclusão.
type WishlistInput struct {
	ProductID string `json:"productId,omitempty"`
	MbpID     string `json:"mbpId,omitempty"`
}
