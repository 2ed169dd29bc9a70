// Package patch описывает частичные обновления: поле либо не передано,
// либо передано со значением, либо передано как null.
package patch

import (
	"bytes"
	"encoding/json"
)

// Optional хранит признак присутствия поля в JSON.
// Отсутствующее поле не трогает данные, явный null их очищает.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some создает заполненное значение
func Some[T any](value T) Optional[T] {
	return Optional[T]{Set: true, Value: value}
}

// Null создает явно очищенное значение
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON вызывается только для присутствующих ключей
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON нужен, чтобы Optional можно было вернуть в ответе
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// HasValue: поле передано и не null
func (o Optional[T]) HasValue() bool {
	return o.Set && !o.Null
}

// Ptr возвращает nil для null и указатель на значение иначе
func (o Optional[T]) Ptr() *T {
	if !o.HasValue() {
		return nil
	}
	v := o.Value
	return &v
}
