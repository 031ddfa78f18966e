package domain

// RawRecord is an upstream document record as decoded from the source API.
// It is the fetcher's output before normalisation; any field may be missing.
type RawRecord struct {
	// DocumentNumber is the upstream identifier.
	DocumentNumber string `json:"document_number"`

	// Title is the document title.
	Title string `json:"title"`

	// Type is the upstream type label (e.g. "Rule", "Presidential Document").
	Type string `json:"type"`

	// Subtype refines presidential documents (e.g. "Executive Order").
	Subtype string `json:"subtype"`

	// PublicationDate is the upstream date string (YYYY-MM-DD).
	PublicationDate string `json:"publication_date"`

	// Abstract is the summary text.
	Abstract string `json:"abstract"`

	// HTMLURL is the public document URL.
	HTMLURL string `json:"html_url"`

	// Agencies lists the publishing agencies.
	Agencies []RawAgency `json:"agencies"`

	// EffectiveOn is the date a rule takes effect (YYYY-MM-DD), if any.
	EffectiveOn string `json:"effective_on"`

	// Significant flags documents significant under Executive Order 12866.
	// Nil when upstream has no determination.
	Significant *bool `json:"significant"`

	// FullTextXMLURL locates the document body as XML.
	FullTextXMLURL string `json:"full_text_xml_url"`

	// FullText is the body retrieved from FullTextXMLURL, when full-text
	// retrieval is enabled. It is never part of the upstream page.
	FullText string `json:"-"`
}

// RawAgency is an upstream agency reference.
type RawAgency struct {
	// Name is the canonical agency name; empty for agencies unknown upstream.
	Name string `json:"name"`

	// RawName is the agency name as printed in the document.
	RawName string `json:"raw_name"`

	// Acronym is the short agency name (e.g. "EPA"), if known.
	Acronym string `json:"acronym"`
}
