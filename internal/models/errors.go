package models

import (
	"fmt"
	"strings"
)

// NotFoundError reports a missing order, menu item or referenced menu item
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// ConflictError reports a uniqueness violation
type ConflictError struct {
	Detail string
}

func (e *ConflictError) Error() string {
	return e.Detail
}

// ValidationError reports a malformed request field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one payload
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Err returns nil when nothing was collected
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// MenuItemNotFound builds the error for a missing menu item
func MenuItemNotFound(id int64) error {
	return &NotFoundError{Resource: "Menu item", ID: id}
}

// OrderNotFound builds the error for a missing order
func OrderNotFound(id int64) error {
	return &NotFoundError{Resource: "Order", ID: id}
}

// DuplicateMenuItemName builds the error for a taken menu item name
func DuplicateMenuItemName(name string) error {
	return &ConflictError{Detail: fmt.Sprintf("Menu item with name '%s' already exists", name)}
}
