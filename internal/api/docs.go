package api

import _ "embed"

// openAPISpec contains the embedded OpenAPI document served at
// /docs/doc.json and rendered by the swagger UI.
//
//go:embed openapi.json
var openAPISpec []byte
