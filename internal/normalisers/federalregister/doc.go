// Package federalregister normalises Federal Register API records into
// canonical documents: required-field validation, type mapping, agency
// deduplication and light cleanup of HTML-bearing text fields.
package federalregister
