package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the civil date format used upstream and in the store.
const DateLayout = "2006-01-02"

// DocumentType classifies a regulatory document.
type DocumentType string

// Known document types.
const (
	DocumentTypeRule                 DocumentType = "rule"
	DocumentTypeProposedRule         DocumentType = "proposed_rule"
	DocumentTypeNotice               DocumentType = "notice"
	DocumentTypeExecutiveOrder       DocumentType = "executive_order"
	DocumentTypePresidentialDocument DocumentType = "presidential_document"
	DocumentTypeOther                DocumentType = "other"
)

// DocumentTypes lists every known type in display order.
var DocumentTypes = []DocumentType{
	DocumentTypeRule,
	DocumentTypeProposedRule,
	DocumentTypeNotice,
	DocumentTypeExecutiveOrder,
	DocumentTypePresidentialDocument,
	DocumentTypeOther,
}

// IsValid returns true if the type is recognised.
func (t DocumentType) IsValid() bool {
	for _, known := range DocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (t DocumentType) String() string {
	return string(t)
}

// Document is the canonical representation of a regulatory document
// after normalisation. It is unique by ID.
type Document struct {
	// ID is the upstream document number (e.g. "2025-00123").
	ID string

	// Title is the document title.
	Title string

	// Type is the normalised document type.
	Type DocumentType

	// PublicationDate is the civil publication date, midnight UTC.
	PublicationDate time.Time

	// Abstract is the summary text, possibly empty.
	Abstract string

	// SourceURL is the public location of the document.
	SourceURL string

	// Agencies are the publishing agencies, deduplicated and sorted by ID.
	Agencies []Agency

	// EffectiveDate is when the document takes effect; zero if unknown.
	EffectiveDate time.Time

	// Significant marks economically or otherwise significant actions.
	Significant bool

	// FullText is the plain text of the document body, possibly empty.
	FullText string

	// ContentHash is the change-detection hash of the mutable fields.
	// Set by the upserter; empty on freshly normalised documents.
	ContentHash string

	// CreatedAt is when the document was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the document was last changed in the store.
	UpdatedAt time.Time
}

// AgencyNames returns the display names of the document's agencies.
func (d *Document) AgencyNames() []string {
	names := make([]string, len(d.Agencies))
	for i, a := range d.Agencies {
		names[i] = a.Name
	}
	return names
}

// Agency is a publishing agency. ID is the case-insensitive key.
type Agency struct {
	// ID is the normalised (lower-cased, whitespace-collapsed) name.
	ID string

	// Name is the display name as first seen.
	Name string

	// Acronym is the short name, possibly empty.
	Acronym string
}

// NormaliseAgencyName collapses whitespace in an agency name and returns the
// display form together with its case-insensitive key.
func NormaliseAgencyName(name string) (display, key string) {
	display = strings.Join(strings.Fields(name), " ")
	return display, strings.ToLower(display)
}

// ParseDate parses a civil date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidInput, s)
	}
	return t, nil
}

// FormatDate formats a time as a civil date. The zero time formats as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// TruncateDate drops the time-of-day component, keeping the UTC civil date.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
