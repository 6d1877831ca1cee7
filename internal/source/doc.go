// Package source loads item records from JSON, YAML and CUE files.
//
// Every format carries the same shape: an ordered list of records, each with
// a name and an optional list of prerequisite names. JSON and YAML files hold
// the list at the top level; CUE files hold it under a records field and are
// unified with a closed schema before decoding.
//
// Record order is preserved exactly as written. Identifiers are normalized
// with ir.NormalizeName, so "  Math " and "Math" name the same item.
package source
