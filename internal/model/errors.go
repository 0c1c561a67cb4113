package model

import "errors"

// Ошибки предметной области. Слои выше оборачивают их через fmt.Errorf("%w: ...").
var (
	// ErrNotFound возвращается, если связанная сущность отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrMissingField возвращается, если не передано обязательное поле.
	ErrMissingField = errors.New("missing field")
	// ErrInvalidQuantity возвращается при некорректном или недоступном количестве.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidValue возвращается, если значение нарушает ограничение (например, отрицательная цена).
	ErrInvalidValue = errors.New("invalid value")
	// ErrInvalidFormat возвращается при неверном формате входных данных.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrInvalidStatus возвращается, если статус не входит в допустимый набор.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidType возвращается при неизвестном типе транзакции.
	ErrInvalidType = errors.New("invalid type")
	// ErrInvalidRecipient возвращается, если у транзакции не ровно один получатель.
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrDuplicate возвращается при попытке создать вторую запись логистики для транзакции.
	ErrDuplicate = errors.New("duplicate")
)

// ErrorKind — имя вида ошибки, которое видит клиент API.
type ErrorKind string

const (
	KindNotFound         ErrorKind = "NotFound"
	KindMissingField     ErrorKind = "MissingField"
	KindInvalidQuantity  ErrorKind = "InvalidQuantity"
	KindInvalidValue     ErrorKind = "InvalidValue"
	KindInvalidFormat    ErrorKind = "InvalidFormat"
	KindInvalidStatus    ErrorKind = "InvalidStatus"
	KindInvalidType      ErrorKind = "InvalidType"
	KindInvalidRecipient ErrorKind = "InvalidRecipient"
	KindDuplicate        ErrorKind = "Duplicate"
	KindInternal         ErrorKind = "Internal"
)

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrNotFound, KindNotFound},
	{ErrMissingField, KindMissingField},
	{ErrInvalidQuantity, KindInvalidQuantity},
	{ErrInvalidValue, KindInvalidValue},
	{ErrInvalidFormat, KindInvalidFormat},
	{ErrInvalidStatus, KindInvalidStatus},
	{ErrInvalidType, KindInvalidType},
	{ErrInvalidRecipient, KindInvalidRecipient},
	{ErrDuplicate, KindDuplicate},
}

// KindOf определяет вид доменной ошибки. Для прочих ошибок возвращает KindInternal.
func KindOf(err error) ErrorKind {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
