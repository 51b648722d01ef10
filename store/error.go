package store

import (
	"fmt"
)

func NewStoreErrorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
