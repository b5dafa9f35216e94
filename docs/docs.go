// Package docs содержит OpenAPI-описание HTTP API, отдаваемое по /swagger/doc.json.
package docs

import _ "embed"

//go:embed swagger.json
var SwaggerJSON []byte
