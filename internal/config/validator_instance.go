package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	boardtuneerrors "github.com/alexisbeaulieu97/boardtune/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	unixUserPattern = regexp.MustCompile(`^[a-z_][a-z0-9_-]*$`)
)

// Governors enumerates the accepted CPU governor names, in the order they
// are presented in help output.
var Governors = []string{"ondemand", "performance", "powersave", "conservative", "schedutil"}

var governorSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Governors))
	for _, g := range Governors {
		set[g] = struct{}{}
	}
	return set
}()

// validatorInstance configures and returns the shared validator instance
// used across the config package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("governor", func(fl validator.FieldLevel) bool {
			_, ok := governorSet[fl.Field().String()]
			return ok
		})

		_ = v.RegisterValidation("unixuser", func(fl validator.FieldLevel) bool {
			return unixUserPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// describeValidationError converts validator output into the typed error the
// CLI reports before exiting.
func describeValidationError(err error) error {
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) || len(invalid) == 0 {
		return boardtuneerrors.NewValidationError("", "invalid configuration", err)
	}

	first := invalid[0]
	field := strings.ToLower(first.Field())
	switch first.Tag() {
	case "governor":
		return boardtuneerrors.NewValidationError(field,
			fmt.Sprintf("unknown governor %q (expected one of: %s)", first.Value(), strings.Join(Governors, ", ")), err)
	case "unixuser":
		return boardtuneerrors.NewValidationError(field,
			fmt.Sprintf("%q is not a valid user name", first.Value()), err)
	default:
		return boardtuneerrors.NewValidationError(field, first.Error(), err)
	}
}
