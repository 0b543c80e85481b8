package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados do PharmaCart.
// Ela permite que o código externo (Handler) acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION_ERROR", "NOT_FOUND", "INTERNAL_ERROR")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// InvalidReferenceError indica uma referência de item inválida: nenhum ou ambos
// entre productId e mbpId foram informados.
type InvalidReferenceError struct {
	Msg string
}

func (e *InvalidReferenceError) Error() string    { return fmt.Sprintf("Referência inválida: %s", e.Msg) }
func (e *InvalidReferenceError) Category() string { return "INVALID_REFERENCE" }
func (e *InvalidReferenceError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *InvalidReferenceError) Unwrap() error    { return nil }

// NewInvalidReferenceError cria um erro de referência inválida.
func NewInvalidReferenceError(msg string) AppError {
	return &InvalidReferenceError{Msg: msg}
}

// InsufficientStockError é retornado quando a soma das variantes de um tamanho
// em todos os lotes não cobre a quantidade pedida.
type InsufficientStockError struct {
	Item      string
	Size      string
	Requested int
	Available int
}

// Shortfall é a quantidade que falta para atender o pedido.
func (e *InsufficientStockError) Shortfall() int { return e.Requested - e.Available }

func (e *InsufficientStockError) Error() string {
	size := e.Size
	if size == "" {
		size = "sem tamanho"
	}
	return fmt.Sprintf("Estoque insuficiente para o item %s, tamanho '%s': pedido %d, disponível %d, faltam %d",
		e.Item, size, e.Requested, e.Available, e.Shortfall())
}
func (e *InsufficientStockError) Category() string { return "INSUFFICIENT_STOCK" }
func (e *InsufficientStockError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *InsufficientStockError) Unwrap() error    { return nil }

// NewInsufficientStockError cria um erro de estoque insuficiente.
func NewInsufficientStockError(item, size string, requested, available int) AppError {
	return &InsufficientStockError{Item: item, Size: size, Requested: requested, Available: available}
}

// InvalidStateError representa uma transição de estado proibida
// (e.g., cancelar um pedido já cancelado ou entregue).
type InvalidStateError struct {
	Msg string
}

func (e *InvalidStateError) Error() string    { return fmt.Sprintf("Transição de estado inválida: %s", e.Msg) }
func (e *InvalidStateError) Category() string { return "INVALID_STATE" }
func (e *InvalidStateError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *InvalidStateError) Unwrap() error    { return nil }

// NewInvalidStateError cria um erro de transição de estado.
func NewInvalidStateError(msg string) AppError {
	return &InvalidStateError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound }
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// ConflictError representa um conflito na regra de negócio (e.g., OCC, recurso duplicado).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict }
func (e *ConflictError) Unwrap() error    { return nil }

// NewConflictError cria um novo erro de conflito (usado em OCC).
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// UnauthorizedError representa credenciais ausentes ou inválidas.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized }
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError cria um erro 401.
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// ForbiddenError representa um usuário autenticado sem permissão para o recurso.
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string    { return fmt.Sprintf("Acesso negado: %s", e.Msg) }
func (e *ForbiddenError) Category() string { return "FORBIDDEN" }
func (e *ForbiddenError) HTTPStatus() int  { return http.StatusForbidden }
func (e *ForbiddenError) Unwrap() error    { return nil }

// NewForbiddenError cria um erro 403.
func NewForbiddenError(msg string) AppError {
	return &ForbiddenError{Msg: msg}
}

// TooManyRequestsError é usado pelo cooldown de OTP.
type TooManyRequestsError struct {
	Msg string
}

func (e *TooManyRequestsError) Error() string    { return fmt.Sprintf("Muitas requisições: %s", e.Msg) }
func (e *TooManyRequestsError) Category() string { return "TOO_MANY_REQUESTS" }
func (e *TooManyRequestsError) HTTPStatus() int  { return http.StatusTooManyRequests }
func (e *TooManyRequestsError) Unwrap() error    { return nil }

// NewTooManyRequestsError cria um erro 429.
func NewTooManyRequestsError(msg string) AppError {
	return &TooManyRequestsError{Msg: msg}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL)
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Erro Interno: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("Erro Interno: %s", e.Msg)
}
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError }
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor (para falhas de lógica ou código não esperado).
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError é um atalho para criar um InternalError específico de falhas no DB.
func NewDBError(msg string, err error) AppError {
	return NewInternalError(fmt.Sprintf("%s (DB)", msg), err)
}

// --- Helpers ---

// IsAppError informa se algum erro na cadeia já é tipado.
func IsAppError(err error) bool {
	var appErr AppError
	return stderrors.As(err, &appErr)
}

// Wrap mantém erros tipados e converte o resto em InternalError.
func Wrap(msg string, err error) error {
	if err == nil {
		return nil
	}
	if IsAppError(err) {
		return err
	}
	return NewInternalError(msg, err)
}

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP e corpo de resposta.
func MapToHTTPStatus(err error) (int, string, string) {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		if appErr.HTTPStatus() >= http.StatusInternalServerError {
			// A causa raiz fica só no log, não vaza para o cliente.
			return appErr.HTTPStatus(), appErr.Category(), "Ocorreu um erro interno no servidor."
		}
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	// Erro não tipado: tratar como erro interno genérico.
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocorreu um erro inesperado."
}
