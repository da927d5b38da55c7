package handler

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/30sweetener09/convenient-market-app-sub000/internal/expiry"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func newValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("devicetoken", func(fl validator.FieldLevel) bool {
		return expiry.ValidToken(fl.Field().String())
	})
	if err != nil {
		return nil, fmt.Errorf("register devicetoken validation: %w", err)
	}
	return v, nil
}

// getValidator panics if the custom tags cannot be registered, since every
// request using them would fail anyway.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v, err := newValidator()
		if err != nil {
			panic(err)
		}
		validate = v
	})
	return validate
}
