package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// OptionalRunID: явное опциональное значение ID run.
//
// Нулевое значение означает отсутствие ID. Ветвление по наличию
// делается только через Get, без сравнения с uuid.Nil.
type OptionalRunID struct {
	id    uuid.UUID
	valid bool
}

// NoRunID: отсутствующий ID run.
var NoRunID = OptionalRunID{}

// SomeRunID оборачивает присутствующий ID run.
func SomeRunID(id uuid.UUID) OptionalRunID {
	return OptionalRunID{id: id, valid: true}
}

// Get возвращает ID и признак его наличия.
func (o OptionalRunID) Get() (uuid.UUID, bool) {
	return o.id, o.valid
}

// IsPresent возвращает true, если ID задан.
func (o OptionalRunID) IsPresent() bool {
	return o.valid
}

// Ptr возвращает указатель на ID или nil (для NULL в БД).
func (o OptionalRunID) Ptr() *uuid.UUID {
	if !o.valid {
		return nil
	}
	id := o.id
	return &id
}

// OptionalRunIDFromPtr строит значение из nullable колонки.
func OptionalRunIDFromPtr(id *uuid.UUID) OptionalRunID {
	if id == nil {
		return NoRunID
	}
	return SomeRunID(*id)
}

// Equal сравнивает два значения (используется и go-cmp).
func (o OptionalRunID) Equal(other OptionalRunID) bool {
	return o.valid == other.valid && (!o.valid || o.id == other.id)
}

func (o OptionalRunID) String() string {
	if !o.valid {
		return "<none>"
	}
	return o.id.String()
}

// MarshalJSON кодирует отсутствующий ID как null.
func (o OptionalRunID) MarshalJSON() ([]byte, error) {
	if !o.valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.id.String())
}

// UnmarshalJSON принимает null или строку с UUID.
func (o *OptionalRunID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = NoRunID
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	*o = SomeRunID(id)
	return nil
}
