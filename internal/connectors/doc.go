// Package connectors provides implementations of the DocumentSource
// interface for upstream document APIs. Each connector knows how to page
// through a specific source and classify its failures as transient or fatal.
package connectors
