package identity

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/csiportal/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"
)

// InitValidators registers the identity validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
}

// Custom Validators

// roleValidation checks that the field names one of AllRoles
func roleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).IsValid()
}

// Validate applies the login rules to c after cleaning it.
func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Clean()
	return validate.Struct(c)
}

func (sr *SignupRequest) Validate(validate *validator.Validate) error {
	sr.Name = core.CleanString(sr.Name)
	sr.Email = core.CleanString(sr.Email, true /* lower */)
	sr.Role = Role(core.CleanString(string(sr.Role), true /* lower */))
	return validate.Struct(sr)
}

func (pu *ProfileUpdate) Validate(validate *validator.Validate) error {
	return validate.Struct(pu)
}
