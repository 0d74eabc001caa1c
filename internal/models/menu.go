package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLength = 100
	// MaxPrice bounds a menu price so line prices and totals stay finite
	MaxPrice = 1_000_000.0
)

// MenuItem is a purchasable catalog entry
type MenuItem struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Price       float64 `json:"price" db:"price"`
	Category    *string `json:"category" db:"category"`
	Description *string `json:"description" db:"description"`
}

// MenuItemCreate is the POST /menu/ payload
type MenuItemCreate struct {
	Name        string   `json:"name"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category,omitempty"`
	Description *string  `json:"description,omitempty"`
}

// MenuItemUpdate is the partial PUT /menu/{id} payload
type MenuItemUpdate struct {
	Name        Optional[string]  `json:"name"`
	Price       Optional[float64] `json:"price"`
	Category    Optional[string]  `json:"category"`
	Description Optional[string]  `json:"description"`
}

// MenuFilter narrows a menu listing
type MenuFilter struct {
	Category *string
	MinPrice *float64
	MaxPrice *float64
	Search   *string
	Page     PageRequest
}

// Validate checks the create payload
func (req *MenuItemCreate) Validate() error {
	var errs ValidationErrors
	if err := validateName(req.Name); err != nil {
		errs = append(errs, *err)
	}
	if req.Price == nil {
		errs = append(errs, ValidationError{Field: "price", Message: "price is required"})
	} else if err := validatePrice(*req.Price); err != nil {
		errs = append(errs, *err)
	}
	return errs.Err()
}

// ToMenuItem builds a new catalog entry from a validated payload
func (req *MenuItemCreate) ToMenuItem() *MenuItem {
	item := &MenuItem{
		Name:        strings.TrimSpace(req.Name),
		Category:    req.Category,
		Description: req.Description,
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	return item
}

// Validate checks only the fields present in the payload. Name and price
// may be omitted but not nulled.
func (req *MenuItemUpdate) Validate() error {
	var errs ValidationErrors
	if req.Name.Set {
		if req.Name.Null {
			errs = append(errs, ValidationError{Field: "name", Message: "name cannot be null"})
		} else if err := validateName(req.Name.Value); err != nil {
			errs = append(errs, *err)
		}
	}
	if req.Price.Set {
		if req.Price.Null {
			errs = append(errs, ValidationError{Field: "price", Message: "price cannot be null"})
		} else if err := validatePrice(req.Price.Value); err != nil {
			errs = append(errs, *err)
		}
	}
	return errs.Err()
}

// Apply overwrites the fields present in the payload
func (req *MenuItemUpdate) Apply(item *MenuItem) {
	if req.Name.Present() {
		item.Name = strings.TrimSpace(req.Name.Value)
	}
	if req.Price.Present() {
		item.Price = req.Price.Value
	}
	if req.Category.Set {
		item.Category = optionalToPtr(req.Category)
	}
	if req.Description.Set {
		item.Description = optionalToPtr(req.Description)
	}
}

// RenamesTo reports whether the update moves the item to a different name
func (req *MenuItemUpdate) RenamesTo(current string) (string, bool) {
	if !req.Name.Present() {
		return "", false
	}
	name := strings.TrimSpace(req.Name.Value)
	return name, name != current
}

func validateName(name string) *ValidationError {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return &ValidationError{Field: "name", Message: "name must not exceed 100 characters"}
	}
	return nil
}

func validatePrice(price float64) *ValidationError {
	if price < 0 {
		return &ValidationError{Field: "price", Message: "price must be non-negative"}
	}
	if price > MaxPrice {
		return &ValidationError{Field: "price", Message: fmt.Sprintf("price must not exceed %g", MaxPrice)}
	}
	return nil
}

func optionalToPtr(o Optional[string]) *string {
	if !o.Present() {
		return nil
	}
	v := o.Value
	return &v
}
