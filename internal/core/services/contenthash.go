package services

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gowebpki/jcs"
	"github.com/zeebo/blake3"

	"github.com/custodia-labs/regdesk/internal/core/domain"
)

// hashedFields are the mutable document fields covered by the content hash.
// Timestamps and the hash itself are excluded. Agencies count by key only;
// their display name and acronym belong to the agency, not the document.
type hashedFields struct {
	Title           string   `json:"title"`
	Type            string   `json:"type"`
	PublicationDate string   `json:"publication_date"`
	Abstract        string   `json:"abstract"`
	SourceURL       string   `json:"source_url"`
	Agencies        []string `json:"agencies"`
	EffectiveDate   string   `json:"effective_date"`
	Significant     bool     `json:"significant"`
	FullText        string   `json:"full_text"`
}

// ContentHash returns the hex BLAKE3-256 digest of the document's mutable
// fields in JSON canonical form (RFC 8785). Agency order does not matter.
func ContentHash(doc *domain.Document) (string, error) {
	fields := hashedFields{
		Title:           doc.Title,
		Type:            doc.Type.String(),
		PublicationDate: domain.FormatDate(doc.PublicationDate),
		Abstract:        doc.Abstract,
		SourceURL:       doc.SourceURL,
		Agencies:        make([]string, 0, len(doc.Agencies)),
		EffectiveDate:   domain.FormatDate(doc.EffectiveDate),
		Significant:     doc.Significant,
		FullText:        doc.FullText,
	}
	for _, a := range doc.Agencies {
		fields.Agencies = append(fields.Agencies, a.ID)
	}
	sort.Strings(fields.Agencies)

	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal hashed fields: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalise hashed fields: %w", err)
	}
	sum := blake3.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
