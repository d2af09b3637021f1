// Package schema validates blueprint payloads against a declared shape.
//
// A schema maps field names to types. Types are parsed from short names so they can be
// written in graph documents:
//
//	schema, err := schema.ParseTypeMap(map[string]string{
//	    "name": "string",
//	    "qty":  "int",
//	    "tags": "[string]?",
//	})
//
// Supported names are string, int, float, bool, object and any, a slice of any of them
// ("[int]"), and a trailing "?" for fields that may be missing or null. Integers decoded
// from JSON arrive as float64 and are accepted as int when they are whole.
package schema
