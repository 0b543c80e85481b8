package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperror "pharmacart/internal/errors"
)

// CatalogItem representa um item de qualquer um dos dois catálogos
// (Produtos e Mãe & Bebê). Ambos têm o mesmo formato.
// @Description Item de catálogo (produto ou Mãe & Bebê).
type CatalogItem struct {
	ID                   string            `json:"id"`
	Kind                 ItemKind          `json:"kind"`
	SKU                  string            `json:"sku"`
	Name                 string            `json:"name"`
	Brand                string            `json:"brand"`
	Category             string            `json:"category"`
	Description          string            `json:"description"`
	Sizes                []string          `json:"sizes"`
	Prices               []decimal.Decimal `json:"prices"`
	MainImageURL         string            `json:"mainImageUrl"`
	SubImageURLs         []string          `json:"subImageUrls"`
	DynamicFields        map[string]string `json:"dynamicFields"`
	PrescriptionRequired bool              `json:"prescriptionRequired"`
	Approved             bool              `json:"approved"`
	Deleted              bool              `json:"-"`
	CreatedAt            time.Time         `json:"createdAt"`
	UpdatedAt            time.Time         `json:"updatedAt"`
}

// Ref devolve a referência tipada do item.
func (c CatalogItem) Ref() ItemRef {
	return ItemRef{Kind: c.Kind, ID: c.ID}
}

// Orderable informa se o item pode ser vendido.
func (c CatalogItem) Orderable() bool {
	return c.Approved && !c.Deleted
}

// OffersSize informa se o tamanho pertence ao item. Item sem tamanhos só aceita
// o tamanho vazio.
func (c CatalogItem) OffersSize(size string) bool {
	return offersSize(c.Sizes, size)
}

func offersSize(sizes []string, size string) bool {
	if len(sizes) == 0 {
		return NormalizeSize(size) == ""
	}
	want := NormalizeSize(size)
	for _, s := range sizes {
		if NormalizeSize(s) == want {
			return true
		}
	}
	return false
}

// PriceForSize devolve o preço paralelo ao tamanho informado. Sem correspondência,
// vale o primeiro preço da lista; sem preços, zero.
func (c CatalogItem) PriceForSize(size string) decimal.Decimal {
	want := NormalizeSize(size)
	for i, s := range c.Sizes {
		if NormalizeSize(s) == want && i < len(c.Prices) {
			return c.Prices[i]
		}
	}
	if len(c.Prices) > 0 {
		return c.Prices[0]
	}
	return decimal.Zero
}

// CatalogItemInput é o payload de criação/atualização de um item de catálogo.
type CatalogItemInput struct {
	SKU                  string            `json:"sku"`
	Name                 string            `json:"name"`
	Brand                string            `json:"brand"`
	Category             string            `json:"category"`
	Description          string            `json:"description"`
	Sizes                []string          `json:"sizes"`
	Prices               []decimal.Decimal `json:"prices"`
	MainImageURL         string            `json:"mainImageUrl"`
	SubImageURLs         []string          `json:"subImageUrls"`
	DynamicFields        map[string]string `json:"dynamicFields"`
	PrescriptionRequired bool              `json:"prescriptionRequired"`
	InitialBatch         *InitialBatch     `json:"initialBatch,omitempty"`
}

// InitialBatch é o lote opcional criado junto com o item.
type InitialBatch struct {
	BatchNumber string         `json:"batchNumber"`
	Variants    []VariantInput `json:"variants"`
}

// Validate confere campos obrigatórios e a paridade tamanhos/preços.
func (in CatalogItemInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperror.NewValidationError("O nome do item é obrigatório.")
	}
	if strings.TrimSpace(in.SKU) == "" {
		return apperror.NewValidationError("O SKU do item é obrigatório.")
	}

	seen := make(map[string]bool, len(in.Sizes))
	for _, s := range in.Sizes {
		n := NormalizeSize(s)
		if n == "" {
			return apperror.NewValidationError("Tamanhos não podem ser vazios.")
		}
		if seen[n] {
			return apperror.NewValidationError(fmt.Sprintf("Tamanho '%s' repetido.", s))
		}
		seen[n] = true
	}

	if len(in.Sizes) > 0 && len(in.Prices) != len(in.Sizes) {
		return apperror.NewValidationError("A lista de preços deve ter um preço por tamanho.")
	}
	if len(in.Sizes) == 0 && len(in.Prices) == 0 {
		return apperror.NewValidationError("Informe ao menos um preço.")
	}
	for _, p := range in.Prices {
		if p.IsNegative() {
			return apperror.NewValidationError("Preços não podem ser negativos.")
		}
	}

	if in.InitialBatch != nil {
		if err := ValidateVariants(in.InitialBatch.Variants); err != nil {
			return err
		}
		for _, v := range in.InitialBatch.Variants {
			if !offersSize(in.Sizes, v.Size) {
				return apperror.NewValidationError(fmt.Sprintf("Tamanho '%s' do lote inicial não existe para este item.", strings.TrimSpace(v.Size)))
			}
		}
	}
	return nil
}

// Apply copia os campos mutáveis do payload para o item.
func (in CatalogItemInput) Apply(item *CatalogItem) {
	item.SKU = strings.TrimSpace(in.SKU)
	item.Name = strings.TrimSpace(in.Name)
	item.Brand = in.Brand
	item.Category = in.Category
	item.Description = in.Description
	item.Sizes = trimAll(in.Sizes)
	item.Prices = in.Prices
	item.MainImageURL = in.MainImageURL
	item.SubImageURLs = in.SubImageURLs
	item.DynamicFields = in.DynamicFields
	item.PrescriptionRequired = in.PrescriptionRequired
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

// CatalogFilter são os filtros de listagem do catálogo.
type CatalogFilter struct {
	Kind         ItemKind
	Search       string
	Category     string
	ApprovedOnly bool
	Page
}

// CatalogPage é uma página de resultados do catálogo.
type CatalogPage struct {
	Items []CatalogItem `json:"items"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}
