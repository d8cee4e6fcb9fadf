package chat

import (
	"fmt"
	"strings"
)

// Category labels the intended domain of a message. The set is closed.
type Category string

const (
	CategoryText       Category = "text"
	CategoryCode       Category = "code"
	CategoryImage      Category = "image"
	CategoryStrategy   Category = "strategy"
	CategoryAppBuilder Category = "appbuilder"
)

// Categories lists every known category.
func Categories() []Category {
	return []Category{CategoryText, CategoryCode, CategoryImage, CategoryStrategy, CategoryAppBuilder}
}

// Valid reports whether c belongs to the closed set.
func (c Category) Valid() bool {
	switch c {
	case CategoryText, CategoryCode, CategoryImage, CategoryStrategy, CategoryAppBuilder:
		return true
	default:
		return false
	}
}

// ParseCategory normalises raw input into a Category.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown agent type %q", raw)
	}
	return c, nil
}
