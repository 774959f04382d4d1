// Package mapper shapes DDF listings into collection item field sets.
//
// Map is pure: the same listing always yields the same FieldSet. Every field
// set is checked against an embedded JSON schema before it reaches the store.
package mapper
