// Package schemas holds the JSON Schema documents for request bodies.
package schemas

import "embed"

// CreateResume is the file name of the /create-resume body schema.
const CreateResume = "create_resume.schema.json"

// FS contains every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS
