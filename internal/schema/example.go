package schema

import _ "embed"

// Example is the starter schema written by `chatmem init`.
//
//go:embed example.yaml
var Example []byte
