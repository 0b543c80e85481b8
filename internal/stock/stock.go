// Package stock contém as regras de baixa e devolução de estoque sobre os lotes
// de um item de catálogo. As funções operam sobre lotes já carregados (e
// bloqueados) pela camada de persistência; nada aqui acessa o banco.
package stock

import (
	"fmt"
	"strings"
	"time"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
)

// ReturnBatchPrefix identifica lotes criados por devolução de pedido cancelado.
const ReturnBatchPrefix = "RETURN-"

// SizeMatches compara um tamanho pedido com o tamanho de uma variante.
// Nulo/vazio/brancos equivalem ao bucket "sem tamanho"; o resto é comparado sem
// diferenciar maiúsculas. A mesma regra vale para baixa e devolução.
func SizeMatches(requested, variant string) bool {
	return strings.EqualFold(strings.TrimSpace(requested), strings.TrimSpace(variant))
}

// matchIndex devolve o índice da primeira variante do lote que casa com o tamanho, ou -1.
func matchIndex(b *domain.InventoryBatch, size string) int {
	for i := range b.Variants {
		if SizeMatches(size, b.Variants[i].Size) {
			return i
		}
	}
	return -1
}

// Available soma, lote a lote, a quantidade da primeira variante que casa com o tamanho.
func Available(batches []domain.InventoryBatch, size string) int {
	total := 0
	for i := range batches {
		if j := matchIndex(&batches[i], size); j >= 0 {
			total += batches[i].Variants[j].Quantity
		}
	}
	return total
}

// Deduct retira qty do tamanho pedido percorrendo os lotes na ordem de carga.
// A disponibilidade total é validada antes de qualquer alteração: em caso de erro
// nenhum lote é modificado. Devolve os índices dos lotes alterados.
func Deduct(ref domain.ItemRef, batches []domain.InventoryBatch, size string, qty int) ([]int, error) {
	if qty <= 0 {
		return nil, apperror.NewValidationError("A quantidade deve ser maior que zero.")
	}
	if len(batches) == 0 {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("Nenhum estoque cadastrado para o item %s.", ref))
	}

	if avail := Available(batches, size); avail < qty {
		return nil, apperror.NewInsufficientStockError(ref.String(), strings.TrimSpace(size), qty, avail)
	}

	remaining := qty
	var touched []int
	for i := range batches {
		if remaining == 0 {
			break
		}
		j := matchIndex(&batches[i], size)
		if j < 0 || batches[i].Variants[j].Quantity <= 0 {
			continue
		}
		take := min(batches[i].Variants[j].Quantity, remaining)
		batches[i].Variants[j].Quantity -= take
		remaining -= take
		touched = append(touched, i)
	}
	return touched, nil
}

// Restore devolve qty inteira à primeira variante que casa com o tamanho (sem dividir
// entre lotes). Devolve o índice do lote alterado, ou -1 se nenhum lote tem o tamanho.
func Restore(batches []domain.InventoryBatch, size string, qty int) int {
	for i := range batches {
		if j := matchIndex(&batches[i], size); j >= 0 {
			batches[i].Variants[j].Quantity += qty
			return i
		}
	}
	return -1
}

// ReturnBatchNumber monta o número do lote de devolução de um item de pedido.
func ReturnBatchNumber(orderID, orderItemID string) string {
	return ReturnBatchPrefix + orderID + "-" + orderItemID
}

// NewReturnBatch cria o lote que recebe uma devolução sem variante correspondente.
func NewReturnBatch(ref domain.ItemRef, batchID, variantID, batchNumber, size string, qty int, now time.Time) domain.InventoryBatch {
	return domain.InventoryBatch{
		ID:          batchID,
		Item:        ref,
		BatchNumber: batchNumber,
		Version:     1,
		CreatedAt:   now,
		LastUpdated: now,
		Variants: []domain.BatchVariant{{
			ID:       variantID,
			Size:     strings.TrimSpace(size),
			Quantity: qty,
			MfgDate:  domain.DateNA,
			ExpDate:  domain.DateNA,
		}},
	}
}

// BySize agrega a quantidade por tamanho em todos os lotes. Tamanhos que diferem
// só em maiúsculas/espaços caem no mesmo bucket, com a grafia vista primeiro.
func BySize(batches []domain.InventoryBatch) []domain.SizeStock {
	var out []domain.SizeStock
	index := make(map[string]int)
	for _, b := range batches {
		for _, v := range b.Variants {
			key := domain.NormalizeSize(v.Size)
			if i, ok := index[key]; ok {
				out[i].Quantity += v.Quantity
				continue
			}
			index[key] = len(out)
			out = append(out, domain.SizeStock{Size: strings.TrimSpace(v.Size), Quantity: v.Quantity})
		}
	}
	return out
}
