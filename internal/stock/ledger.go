package stock

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
)

// Ledger é o conjunto de trabalho de um pedido: os lotes de cada item envolvido,
// carregados uma vez. Várias linhas do mesmo item enxergam as baixas umas das outras.
// Nada é persistido aqui; Changes informa o que precisa ser gravado.
type Ledger struct {
	lowThreshold int
	now          func() time.Time
	newID        func() string

	refs    map[string]domain.ItemRef
	batches map[string][]domain.InventoryBatch
	dirty   map[string]map[int]bool
	created map[string]bool
}

// NewLedger cria um ledger vazio. lowThreshold define o rótulo LOW_STOCK.
func NewLedger(lowThreshold int) *Ledger {
	return &Ledger{
		lowThreshold: lowThreshold,
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
		refs:         make(map[string]domain.ItemRef),
		batches:      make(map[string][]domain.InventoryBatch),
		dirty:        make(map[string]map[int]bool),
		created:      make(map[string]bool),
	}
}

// Load registra os lotes de um item. Cargas repetidas do mesmo item são ignoradas.
func (l *Ledger) Load(ref domain.ItemRef, batches []domain.InventoryBatch) {
	key := ref.Key()
	if _, ok := l.refs[key]; ok {
		return
	}
	copied := make([]domain.InventoryBatch, len(batches))
	for i, b := range batches {
		copied[i] = b.Clone()
	}
	l.refs[key] = ref
	l.batches[key] = copied
}

// Loaded informa se o item já foi carregado.
func (l *Ledger) Loaded(ref domain.ItemRef) bool {
	_, ok := l.refs[ref.Key()]
	return ok
}

// Batches devolve os lotes atuais do item (já com as alterações do ledger).
func (l *Ledger) Batches(ref domain.ItemRef) []domain.InventoryBatch {
	return l.batches[ref.Key()]
}

// Available devolve a quantidade disponível do tamanho no estado atual do ledger.
func (l *Ledger) Available(ref domain.ItemRef, size string) int {
	return Available(l.batches[ref.Key()], size)
}

// Deduct dá baixa em uma linha de pedido. Falhas não alteram o ledger.
func (l *Ledger) Deduct(ref domain.ItemRef, size string, qty int) error {
	key := ref.Key()
	if !l.Loaded(ref) {
		return apperror.NewInternalError("item não carregado no ledger: "+key, nil)
	}
	touched, err := Deduct(ref, l.batches[key], size, qty)
	if err != nil {
		return err
	}
	l.markDirty(key, touched...)
	return nil
}

// Restore devolve uma linha de pedido cancelado. Sem variante correspondente em
// nenhum lote, cria o lote returnBatchNumber com uma única variante (datas N/A).
func (l *Ledger) Restore(ref domain.ItemRef, size string, qty int, returnBatchNumber string) error {
	if qty <= 0 {
		return apperror.NewValidationError("A quantidade deve ser maior que zero.")
	}
	key := ref.Key()
	if !l.Loaded(ref) {
		return apperror.NewInternalError("item não carregado no ledger: "+key, nil)
	}

	if i := Restore(l.batches[key], size, qty); i >= 0 {
		l.markDirty(key, i)
		return nil
	}

	b := NewReturnBatch(ref, l.newID(), l.newID(), returnBatchNumber, size, qty, l.now())
	l.batches[key] = append(l.batches[key], b)
	l.created[b.ID] = true
	l.markDirty(key, len(l.batches[key])-1)
	return nil
}

func (l *Ledger) markDirty(key string, idx ...int) {
	set, ok := l.dirty[key]
	if !ok {
		set = make(map[int]bool)
		l.dirty[key] = set
	}
	for _, i := range idx {
		set[i] = true
	}
}

// Changes devolve os lotes alterados e os lotes novos, com rótulo de estoque e
// LastUpdated recalculados. A ordem é estável (chave do item, depois ordem de carga).
func (l *Ledger) Changes() (updated, created []domain.InventoryBatch) {
	keys := make([]string, 0, len(l.dirty))
	for k := range l.dirty {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := l.now()
	for _, key := range keys {
		idx := make([]int, 0, len(l.dirty[key]))
		for i := range l.dirty[key] {
			idx = append(idx, i)
		}
		sort.Ints(idx)

		for _, i := range idx {
			b := l.batches[key][i].Clone()
			b.StockStatus = domain.StatusFor(b.TotalQuantity(), l.lowThreshold)
			b.LastUpdated = now
			if l.created[b.ID] {
				created = append(created, b)
			} else {
				updated = append(updated, b)
			}
		}
	}
	return updated, created
}
