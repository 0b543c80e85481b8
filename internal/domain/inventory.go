package domain

import (
	"strings"
	"time"

	apperror "pharmacart/internal/errors"
)

// DateNA é a data sentinela usada em lotes de devolução.
const DateNA = "N/A"

const dateLayout = "2006-01-02"

// StockStatus é o rótulo de situação do lote.
type StockStatus string

const (
	StockOutOfStock StockStatus = "OUT_OF_STOCK"
	StockLow        StockStatus = "LOW_STOCK"
	StockIn         StockStatus = "IN_STOCK"
)

// StatusFor calcula o rótulo a partir do total do lote.
func StatusFor(total, lowThreshold int) StockStatus {
	switch {
	case total <= 0:
		return StockOutOfStock
	case total < lowThreshold:
		return StockLow
	default:
		return StockIn
	}
}

// BatchVariant é uma tupla (tamanho, quantidade, fabricação, validade) dentro de um lote.
type BatchVariant struct {
	ID       string `json:"id"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
	MfgDate  string `json:"mfgDate"`
	ExpDate  string `json:"expDate"`
}

// InventoryBatch é um lote recebido de um item de catálogo.
// Version é incrementada a cada escrita (controle de concorrência otimista).
type InventoryBatch struct {
	ID          string         `json:"id"`
	Item        ItemRef        `json:"item"`
	BatchNumber string         `json:"batchNumber"`
	StockStatus StockStatus    `json:"stockStatus"`
	Version     int            `json:"version"`
	CreatedAt   time.Time      `json:"createdAt"`
	LastUpdated time.Time      `json:"lastUpdated"`
	Variants    []BatchVariant `json:"variants"`
}

// TotalQuantity soma as variantes do lote.
func (b InventoryBatch) TotalQuantity() int {
	total := 0
	for _, v := range b.Variants {
		total += v.Quantity
	}
	return total
}

// Clone devolve uma cópia profunda do lote.
func (b InventoryBatch) Clone() InventoryBatch {
	c := b
	c.Variants = append([]BatchVariant(nil), b.Variants...)
	return c
}

// VariantInput é uma variante no payload de lote.
type VariantInput struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
	MfgDate  string `json:"mfgDate"`
	ExpDate  string `json:"expDate"`
}

// Validate confere quantidade e datas (YYYY-MM-DD ou N/A).
func (v VariantInput) Validate() error {
	if v.Quantity < 0 {
		return apperror.NewValidationError("A quantidade da variante não pode ser negativa.")
	}
	if !validDate(v.MfgDate) || !validDate(v.ExpDate) {
		return apperror.NewValidationError("Datas devem estar no formato AAAA-MM-DD ou N/A.")
	}
	return nil
}

// ToVariant converte o payload na variante persistida.
func (v VariantInput) ToVariant(id string) BatchVariant {
	return BatchVariant{
		ID:       id,
		Size:     strings.TrimSpace(v.Size),
		Quantity: v.Quantity,
		MfgDate:  dateOrNA(v.MfgDate),
		ExpDate:  dateOrNA(v.ExpDate),
	}
}

func validDate(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || s == DateNA {
		return true
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

func dateOrNA(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DateNA
	}
	return s
}

// ParseDate interpreta uma data de variante; false para N/A ou inválida.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	return t, err == nil
}

// BatchInput é o payload de criação/atualização de lote.
type BatchInput struct {
	ProductID   string         `json:"productId,omitempty"`
	MbpID       string         `json:"mbpId,omitempty"`
	BatchNumber string         `json:"batchNumber"`
	Variants    []VariantInput `json:"variants"`
	// Version, quando informada na atualização, precisa ser a versão atual do lote.
	Version int `json:"version,omitempty"`
}

// Validate confere o número do lote e as variantes.
func (in BatchInput) Validate() error {
	if strings.TrimSpace(in.BatchNumber) == "" {
		return apperror.NewValidationError("O número do lote é obrigatório.")
	}
	if len(in.Variants) == 0 {
		return apperror.NewValidationError("O lote deve ter ao menos uma variante.")
	}
	return ValidateVariants(in.Variants)
}

// ValidateVariants confere cada variante e recusa tamanhos repetidos no mesmo lote:
// a baixa só enxerga a primeira variante de cada tamanho.
func ValidateVariants(variants []VariantInput) error {
	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		if err := v.Validate(); err != nil {
			return err
		}
		n := NormalizeSize(v.Size)
		if seen[n] {
			return apperror.NewValidationError("Tamanho repetido no mesmo lote.")
		}
		seen[n] = true
	}
	return nil
}

// SizeStock é a quantidade agregada de um tamanho em todos os lotes.
type SizeStock struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}
