// Package openapi embeds the OpenAPI description of the dashboard HTTP API.
package openapi

import _ "embed"

//go:embed penguinboard.yaml
var document []byte

// Spec returns a copy of the embedded OpenAPI YAML.
func Spec() []byte {
	return append([]byte(nil), document...)
}
