// Package validation validates configuration structs using struct tags.
//
// Field names in errors follow the `mapstructure` tag so messages point at the
// configuration key an operator has to fix:
//
//	type Properties struct {
//	    AdminPath string `mapstructure:"admin-path" validate:"required,pathsegment"`
//	}
//	err := validation.Validate(props) // "admin-path: is required"
package validation
