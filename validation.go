package log4you

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate
var validateOnce sync.Once

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%s", errMsgNilConfig)
	}

	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%s: %w", errMsgConfigInvalid, err)
	}

	return nil
}
