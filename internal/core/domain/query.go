package domain

import "time"

// DocumentQuery filters documents for read-only tool access.
// All fields are optional; zero values do not filter.
type DocumentQuery struct {
	// Keyword is matched as a literal substring of title, abstract or
	// full text.
	Keyword string

	// Type restricts the document type.
	Type DocumentType

	// Agency is matched as a literal, case-insensitive substring of an
	// agency name.
	Agency string

	// PublishedAfter and PublishedBefore bound the publication date,
	// both inclusive.
	PublishedAfter  time.Time
	PublishedBefore time.Time

	// Limit caps the number of rows returned.
	Limit int
}

// AgencyQuery filters agencies.
type AgencyQuery struct {
	// NameContains is a literal, case-insensitive substring of the name.
	NameContains string

	// Limit caps the number of rows returned.
	Limit int
}

// AgencySummary is an agency with its document count.
type AgencySummary struct {
	Agency
	Documents int
}

// TypeCount is the number of documents of one type.
type TypeCount struct {
	Type  DocumentType
	Count int
}
