package compiler

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// assetValidate is the validator instance for authored assets.
// Initialized in init() with custom validators.
var assetValidate *validator.Validate

var animNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

func init() {
	assetValidate = validator.New()
	if err := assetValidate.RegisterValidation("anim_name", validateAnimName); err != nil {
		panic(fmt.Sprintf("compiler: register anim_name validation: %v", err))
	}
}

// validateAnimName accepts identifiers usable as node ids and parameter names.
func validateAnimName(fl validator.FieldLevel) bool {
	return animNamePattern.MatchString(fl.Field().String())
}

// Validate runs struct-tag validation over the asset.
//
// Parameters:
//   - a: the asset to check
//
// Returns:
//   - error: nil, or an error wrapping ErrInvalidAsset
func Validate(a *Asset) error {
	if err := assetValidate.Struct(a); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}
	return nil
}
