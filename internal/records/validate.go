package records

import (
	"fmt"
	"sync"

	"github.com/bizdash/bizsync/internal/common"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the struct tags of r. Failures wrap common.ErrInvalidRecord.
func Validate(r Record) error {
	if err := validatorInstance().Struct(r); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidRecord, err)
	}
	return nil
}
