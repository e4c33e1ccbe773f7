package config

import (
	"fmt"
	"strings"
)

// SecretValidator checks configured credentials for missing or example values.
// Problems are errors in production and warnings elsewhere.
type SecretValidator struct {
	config   *Config
	errors   []string
	warnings []string
}

func NewSecretValidator(cfg *Config) *SecretValidator {
	return &SecretValidator{
		config:   cfg,
		errors:   []string{},
		warnings: []string{},
	}
}

var exampleSecrets = map[string]bool{
	"changeme":                          true,
	"CHANGE_THIS_SECRET_KEY_BEFORE_USE": true,
	"password":                          true,
	"admin123":                          true,
	"readonly123":                       true,
}

func (v *SecretValidator) Validate() error {
	isProduction := v.config.App.IsProduction()

	v.validateJWTSecret(isProduction)
	v.validatePassword("database.password", v.config.Database.Password, v.config.Database.Driver == "sqlserver", isProduction)
	v.validatePassword("ldap.bind_password", v.config.LDAP.BindPassword, v.config.LDAP.BindDN != "", isProduction)

	if len(v.errors) > 0 {
		return fmt.Errorf("secret validation failed:\n%s", strings.Join(v.errors, "\n"))
	}
	return nil
}

// Warnings returns the non-fatal findings of the last Validate call.
func (v *SecretValidator) Warnings() []string {
	return v.warnings
}

func (v *SecretValidator) validateJWTSecret(isProduction bool) {
	secret := v.config.Auth.JWT.Secret

	if secret == "" {
		v.addError("auth.jwt.secret is not set", isProduction)
		return
	}
	if exampleSecrets[secret] {
		v.addError("auth.jwt.secret is using an example value", isProduction)
		return
	}
	if !isProduction && (strings.HasPrefix(secret, "dev-") || strings.HasPrefix(secret, "test-")) {
		return
	}
	if len(secret) < 32 {
		v.addError("auth.jwt.secret must be at least 32 characters long", isProduction)
	}
}

func (v *SecretValidator) validatePassword(key, value string, required, isProduction bool) {
	if value == "" {
		if required {
			v.addWarning(key + " is not set")
		}
		return
	}
	if exampleSecrets[value] {
		v.addError(key+" is using an example value", isProduction)
		return
	}
	if len(value) < 12 {
		v.addWarning(key + " should be at least 12 characters long")
	}
}

func (v *SecretValidator) addError(message string, isProduction bool) {
	if isProduction {
		v.errors = append(v.errors, "   "+message)
	} else {
		v.warnings = append(v.warnings, "   "+message)
	}
}

func (v *SecretValidator) addWarning(message string) {
	v.warnings = append(v.warnings, "   "+message)
}

func ValidateSecrets(cfg *Config) ([]string, error) {
	validator := NewSecretValidator(cfg)
	err := validator.Validate()
	return validator.Warnings(), err
}
