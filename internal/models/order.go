package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// StatusPending is the status of a freshly created order
const StatusPending = "pending"

// OrderItem is one line of an order. Price is captured at write time as
// menu price times quantity and never re-derived.
type OrderItem struct {
	ID         int64   `json:"id" db:"id"`
	OrderID    int64   `json:"-" db:"order_id"`
	MenuItemID int64   `json:"menu_item_id" db:"menu_item_id"`
	Quantity   int     `json:"quantity" db:"quantity"`
	Price      float64 `json:"price" db:"price"`
}

// Order is the aggregate of a status, a derived total and its line items
type Order struct {
	ID         int64       `json:"id" db:"id"`
	Status     string      `json:"status" db:"status"`
	TotalPrice float64     `json:"total_price" db:"total_price"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	Items      []OrderItem `json:"items"`
}

// OrderItemCreate requests quantity units of a menu item
type OrderItemCreate struct {
	MenuItemID int64 `json:"menu_item_id"`
	Quantity   int   `json:"quantity"`
}

// OrderCreate is the payload for POST /orders/ and PUT /orders/{id}
type OrderCreate struct {
	Status *string           `json:"status,omitempty"`
	Items  []OrderItemCreate `json:"items"`
}

// OrderUpdate is the sparse PATCH /orders/{id} payload
type OrderUpdate struct {
	Status Optional[string]            `json:"status"`
	Items  Optional[[]OrderItemCreate] `json:"items"`
}

// OrderFilter narrows an order listing
type OrderFilter struct {
	Status   *string
	MinTotal *float64
	MaxTotal *float64
	Page     PageRequest
}

// Validate checks the create/replace payload
func (req *OrderCreate) Validate() error {
	var errs ValidationErrors
	if req.Status != nil {
		if err := validateStatus(*req.Status); err != nil {
			errs = append(errs, *err)
		}
	}
	if req.Items == nil {
		errs = append(errs, ValidationError{Field: "items", Message: "items is required"})
	} else {
		errs = append(errs, validateItems(req.Items)...)
	}
	return errs.Err()
}

// StatusOrDefault returns the requested status or "pending"
func (req *OrderCreate) StatusOrDefault() string {
	if req.Status == nil {
		return StatusPending
	}
	return strings.TrimSpace(*req.Status)
}

// Validate checks the fields present in the payload
func (req *OrderUpdate) Validate() error {
	var errs ValidationErrors
	if req.Status.Set {
		if req.Status.Null {
			errs = append(errs, ValidationError{Field: "status", Message: "status cannot be null"})
		} else if err := validateStatus(req.Status.Value); err != nil {
			errs = append(errs, *err)
		}
	}
	if req.Items.Set {
		if req.Items.Null {
			errs = append(errs, ValidationError{Field: "items", Message: "items cannot be null"})
		} else {
			errs = append(errs, validateItems(req.Items.Value)...)
		}
	}
	return errs.Err()
}

// CalculateTotal sums the captured prices of the items
func CalculateTotal(items []OrderItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Price
	}
	return total
}

// CheckAmount rejects a line price or total that cannot be stored and
// rendered as a JSON number
func CheckAmount(field string, amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ValidationError{Field: field, Message: "amount is out of range"}
	}
	return nil
}

// LinePrice is the captured price of quantity units at the given unit price
func LinePrice(unitPrice float64, quantity int) float64 {
	return unitPrice * float64(quantity)
}

func validateStatus(status string) *ValidationError {
	status = strings.TrimSpace(status)
	if status == "" {
		return &ValidationError{Field: "status", Message: "status must not be empty"}
	}
	if len(status) > 50 {
		return &ValidationError{Field: "status", Message: "status must not exceed 50 characters"}
	}
	return nil
}

func validateItems(items []OrderItemCreate) ValidationErrors {
	if len(items) == 0 {
		return ValidationErrors{{Field: "items", Message: "items cannot be empty"}}
	}

	var errs ValidationErrors
	for i, item := range items {
		prefix := fmt.Sprintf("items[%d]", i)
		if item.MenuItemID <= 0 {
			errs = append(errs, ValidationError{
				Field:   prefix + ".menu_item_id",
				Message: "menu_item_id must be a positive integer",
			})
		}
		if item.Quantity <= 0 {
			errs = append(errs, ValidationError{
				Field:   prefix + ".quantity",
				Message: "quantity must be greater than 0",
			})
		}
	}
	return errs
}
