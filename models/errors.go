package models

import "errors"

// ErrProductNotFound is returned when no tracked product matches the lookup
var ErrProductNotFound = errors.New("product not found")
