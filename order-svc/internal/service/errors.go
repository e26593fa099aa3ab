package service

import (
	"errors"
	"strings"

	"quiosco/order-svc/internal/domain"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindEmptyOrder
	KindProductNotFound
	KindDuplicate
	KindForeignKey
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindEmptyOrder:
		return "empty_order"
	case KindProductNotFound:
		return "product_not_found"
	case KindDuplicate:
		return "duplicate"
	case KindForeignKey:
		return "foreign_key"
	case KindInternal:
		return "internal"
	}
	return "unknown"
}

const (
	MsgOrderCreated     = "Orden creada exitosamente y notificada por WhatsApp"
	MsgEmptyOrder       = "La orden no puede estar vacía"
	MsgProductsMissing  = "Algunos productos no existen en la base de datos"
	MsgDuplicateProduct = "Error: Hay productos duplicados en la orden"
	MsgForeignKey       = "Error: Algunos productos no existen"
	MsgInternal         = "Error interno del servidor al crear la orden"
	MsgOrderNotUpdated  = "No se pudo actualizar la orden"
)

// OrderError is the only error type order creation returns.
type OrderError struct {
	Kind   ErrorKind
	Issues []domain.Issue
}

func newOrderError(kind ErrorKind, message string) *OrderError {
	return &OrderError{Kind: kind, Issues: []domain.Issue{{Message: message}}}
}

func (e *OrderError) Error() string {
	messages := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		messages = append(messages, issue.Message)
	}
	return e.Kind.String() + ": " + strings.Join(messages, "; ")
}

// classifyStorageError maps a failed order write onto the workflow's error kinds.
func classifyStorageError(err error) *OrderError {
	switch {
	case errors.Is(err, domain.ErrDuplicate):
		return newOrderError(KindDuplicate, MsgDuplicateProduct)
	case errors.Is(err, domain.ErrForeignKey):
		return newOrderError(KindForeignKey, MsgForeignKey)
	default:
		return newOrderError(KindInternal, MsgInternal)
	}
}

var (
	ErrOrderNotUpdated  = errors.New("order could not be marked as ready")
	ErrMissingFields    = errors.New("missing required product fields")
	ErrInvalidCategory  = errors.New("invalid category id")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrCategoryNotFound = errors.New("category does not exist")
	ErrDuplicateProduct = errors.New("product name already exists")
	ErrNoFile           = errors.New("no file provided")
	ErrInvalidSession   = errors.New("invalid cart session")
)
