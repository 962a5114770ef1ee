// internal/blockchain/errors.go
package blockchain

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибку так, чтобы вызывающий код мог отличить
// "сервис недоступен" от "неверный адрес/минт".
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindDecode
	KindProtocol
	KindValidation
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	case KindProtocol:
		return "protocol"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

var (
	// ErrNetwork - таймаут, отказ соединения, DNS, не-2xx статус
	ErrNetwork = errors.New("network error")

	// ErrDecode - тело ответа не является корректным JSON
	ErrDecode = errors.New("decode error")

	// ErrProtocol - корректный JSON без ожидаемого result или с error-конвертом
	ErrProtocol = errors.New("protocol error")

	// ErrValidation - входные данные отклонены
	ErrValidation = errors.New("validation error")

	// ErrNotFound - адрес отсутствует в транзакции, у владельца нет токен-аккаунтов и т.п.
	ErrNotFound = errors.New("not found")
)

var kindSentinels = map[Kind]error{
	KindNetwork:    ErrNetwork,
	KindDecode:     ErrDecode,
	KindProtocol:   ErrProtocol,
	KindValidation: ErrValidation,
	KindNotFound:   ErrNotFound,
}

// Error представляет ошибку с классификацией и именем операции
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error реализует интерфейс error
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s [%s]", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Kind, e.Op, e.Err)
}

// Unwrap возвращает оригинальную ошибку
func (e *Error) Unwrap() error {
	return e.Err
}

// Is позволяет писать errors.Is(err, blockchain.ErrNetwork)
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// NewError создает классифицированную ошибку
func NewError(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func NetworkError(op string, err error) error    { return NewError(KindNetwork, op, err) }
func DecodeError(op string, err error) error     { return NewError(KindDecode, op, err) }
func ProtocolError(op string, err error) error   { return NewError(KindProtocol, op, err) }
func ValidationError(op string, err error) error { return NewError(KindValidation, op, err) }
func NotFoundError(op string, err error) error   { return NewError(KindNotFound, op, err) }

// KindOf извлекает Kind из цепочки ошибок
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable - повторять имеет смысл только сетевые ошибки
func IsRetryable(err error) bool {
	return err != nil && KindOf(err) == KindNetwork
}
