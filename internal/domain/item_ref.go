package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	apperror "pharmacart/internal/errors"
)

// ItemKind identifica o catálogo ao qual um item pertence.
type ItemKind string

const (
	KindProduct    ItemKind = "PRODUCT"
	KindMotherBaby ItemKind = "MOTHER_BABY"
)

// Valid informa se o tipo é conhecido.
func (k ItemKind) Valid() bool {
	return k == KindProduct || k == KindMotherBaby
}

// ItemRef referencia exatamente um item de catálogo: um Produto ou um produto Mãe & Bebê.
// É usado por lotes, itens de pedido, carrinho e lista de desejos.
type ItemRef struct {
	Kind ItemKind
	ID   string
}

// ProductRef cria uma referência para a linha de produtos.
func ProductRef(id string) ItemRef { return ItemRef{Kind: KindProduct, ID: id} }

// MotherBabyRef cria uma referência para a linha Mãe & Bebê.
func MotherBabyRef(id string) ItemRef { return ItemRef{Kind: KindMotherBaby, ID: id} }

// ParseItemRef monta a referência a partir dos dois campos do payload.
// Exatamente um deles deve ser informado.
func ParseItemRef(productID, mbpID string) (ItemRef, error) {
	productID = strings.TrimSpace(productID)
	mbpID = strings.TrimSpace(mbpID)

	switch {
	case productID == "" && mbpID == "":
		return ItemRef{}, apperror.NewInvalidReferenceError("informe productId ou mbpId.")
	case productID != "" && mbpID != "":
		return ItemRef{}, apperror.NewInvalidReferenceError("informe apenas um entre productId e mbpId.")
	case productID != "":
		return NewItemRef(KindProduct, productID)
	default:
		return NewItemRef(KindMotherBaby, mbpID)
	}
}

// NewItemRef valida o tipo e o formato do ID.
func NewItemRef(kind ItemKind, id string) (ItemRef, error) {
	if !kind.Valid() {
		return ItemRef{}, apperror.NewInvalidReferenceError(fmt.Sprintf("tipo de item desconhecido '%s'.", kind))
	}
	if _, err := uuid.Parse(id); err != nil {
		return ItemRef{}, apperror.NewInvalidReferenceError(fmt.Sprintf("ID de item inválido '%s'.", id))
	}
	return ItemRef{Kind: kind, ID: id}, nil
}

// IsZero informa se a referência está vazia.
func (r ItemRef) IsZero() bool { return r.Kind == "" && r.ID == "" }

// Key é a chave estável usada para ordenar bloqueios e indexar o ledger.
func (r ItemRef) Key() string { return string(r.Kind) + ":" + r.ID }

func (r ItemRef) String() string { return r.Key() }

// ProductID devolve o ID quando a referência é de Produto.
func (r ItemRef) ProductID() string {
	if r.Kind == KindProduct {
		return r.ID
	}
	return ""
}

// MbpID devolve o ID quando a referência é de Mãe & Bebê.
func (r ItemRef) MbpID() string {
	if r.Kind == KindMotherBaby {
		return r.ID
	}
	return ""
}

type itemRefJSON struct {
	Kind      ItemKind `json:"kind"`
	ProductID string   `json:"productId,omitempty"`
	MbpID     string   `json:"mbpId,omitempty"`
}

// MarshalJSON mantém o formato do cliente (productId / mbpId).
func (r ItemRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(itemRefJSON{Kind: r.Kind, ProductID: r.ProductID(), MbpID: r.MbpID()})
}

// UnmarshalJSON aplica a mesma regra de exclusividade do ParseItemRef.
func (r *ItemRef) UnmarshalJSON(data []byte) error {
	var raw itemRefJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ref, err := ParseItemRef(raw.ProductID, raw.MbpID)
	if err != nil {
		return err
	}
	*r = ref
	return nil
}
