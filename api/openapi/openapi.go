// Package openapi embeds the API description served by the bootstrap.
package openapi

import _ "embed"

// Document is the OpenAPI description in YAML.
//
//go:embed openapi.yaml
var Document []byte
