// Package openapi embeds the OpenAPI description served by the Swagger UI.
package openapi

import _ "embed"

// Spec is the OpenAPI 3 document for the HTTP API.
//
//go:embed users.json
var Spec []byte
