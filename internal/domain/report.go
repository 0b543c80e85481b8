package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummary agrega os indicadores do painel administrativo.
type DashboardSummary struct {
	OrdersByStatus       map[OrderStatus]int `json:"ordersByStatus"`
	TotalOrders          int                 `json:"totalOrders"`
	Revenue              decimal.Decimal     `json:"revenue"`
	Products             int                 `json:"products"`
	MotherBabyProducts   int                 `json:"motherBabyProducts"`
	PendingPrescriptions int                 `json:"pendingPrescriptions"`
	LowStockVariants     int                 `json:"lowStockVariants"`
	ExpiringBatches      int                 `json:"expiringBatches"`
}

// SalesPoint é um dia do relatório de vendas.
type SalesPoint struct {
	Day     time.Time       `json:"day"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// TopSellingItem é uma linha do ranking de mais vendidos.
type TopSellingItem struct {
	Item     ItemRef         `json:"item"`
	ItemName string          `json:"itemName"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// StockAlert é uma variante com estoque baixo ou perto da validade.
type StockAlert struct {
	BatchID     string  `json:"batchId"`
	BatchNumber string  `json:"batchNumber"`
	Item        ItemRef `json:"item"`
	Size        string  `json:"size"`
	Quantity    int     `json:"quantity"`
	ExpDate     string  `json:"expDate"`
}
