package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// nullCategoryKey: ключ, под которым группа без категории попадает в JSON-объекты.
const nullCategoryKey = "null"

// Category: свободный текстовый ключ группировки. Не является перечислением:
// допускается любая строка, а NULL образует собственную группу.
type Category struct {
	Name  string
	Valid bool
}

// NewCategory создает заполненную категорию.
func NewCategory(name string) Category {
	return Category{Name: name, Valid: true}
}

func (c Category) String() string {
	if !c.Valid {
		return ""
	}
	return c.Name
}

// MarshalText используется как ключ map при сериализации статистики.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid {
		return []byte(nullCategoryKey), nil
	}
	return []byte(c.Name), nil
}

// UnmarshalText нужен для чтения статистики из кэша. Ключ "null" неотличим
// от категории с таким именем, как и в самом ответе /api/stats.
func (c *Category) UnmarshalText(text []byte) error {
	if string(text) == nullCategoryKey {
		*c = Category{}
		return nil
	}
	*c = NewCategory(string(text))
	return nil
}

func (c Category) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Name)
}

func (c *Category) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = Category{}
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("category must be a string: %w", err)
	}
	*c = NewCategory(name)
	return nil
}

// Value реализует driver.Valuer: невалидная категория пишется как NULL.
func (c Category) Value() (driver.Value, error) {
	if !c.Valid {
		return nil, nil
	}
	return c.Name, nil
}

// Scan реализует sql.Scanner.
func (c *Category) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = Category{}
	case string:
		*c = NewCategory(v)
	case []byte:
		*c = NewCategory(string(v))
	default:
		return fmt.Errorf("category: unsupported source type %T", src)
	}
	return nil
}
