package federalregister

import (
	"net/url"
	"sort"
	"strings"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// publicDocumentURL is the fallback location for records without html_url.
const publicDocumentURL = "https://www.federalregister.gov/d/"

// Upstream type labels.
const (
	typeRule                 = "rule"
	typeProposedRule         = "proposed rule"
	typeNotice               = "notice"
	typePresidentialDocument = "presidential document"
	subtypeExecutiveOrder    = "executive order"
)

// Normaliser handles Federal Register document records.
type Normaliser struct{}

// New creates a new Federal Register normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Normalise converts a raw record to a document.
func (n *Normaliser) Normalise(raw *domain.RawRecord) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	id := strings.TrimSpace(raw.DocumentNumber)
	if id == "" {
		return nil, &domain.ValidationError{Field: "document_number", Reason: "is missing"}
	}

	title := cleanText(raw.Title)
	if title == "" {
		return nil, &domain.ValidationError{DocumentID: id, Field: "title", Reason: "is missing"}
	}

	if strings.TrimSpace(raw.PublicationDate) == "" {
		return nil, &domain.ValidationError{DocumentID: id, Field: "publication_date", Reason: "is missing"}
	}
	published, err := domain.ParseDate(raw.PublicationDate)
	if err != nil {
		return nil, &domain.ValidationError{
			DocumentID: id,
			Field:      "publication_date",
			Reason:     "is not a YYYY-MM-DD date: " + raw.PublicationDate,
		}
	}

	doc := &domain.Document{
		ID:              id,
		Title:           title,
		Type:            MapType(raw.Type, raw.Subtype),
		PublicationDate: published,
		Abstract:        cleanText(raw.Abstract),
		SourceURL:       documentURL(id, raw.HTMLURL),
		Agencies:        agencies(raw.Agencies),
		FullText:        xmlText(raw.FullText),
	}
	if raw.Significant != nil {
		doc.Significant = *raw.Significant
	}
	// effective_on is optional; a malformed value is dropped, not the record.
	if effective, err := domain.ParseDate(raw.EffectiveOn); err == nil {
		doc.EffectiveDate = effective
	}

	return doc, nil
}

// MapType maps an upstream type label (and subtype) to a DocumentType.
// Matching is case-insensitive; unknown labels map to DocumentTypeOther.
func MapType(typ, subtype string) domain.DocumentType {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case typeRule:
		return domain.DocumentTypeRule
	case typeProposedRule:
		return domain.DocumentTypeProposedRule
	case typeNotice:
		return domain.DocumentTypeNotice
	case typePresidentialDocument:
		if strings.EqualFold(strings.TrimSpace(subtype), subtypeExecutiveOrder) {
			return domain.DocumentTypeExecutiveOrder
		}
		return domain.DocumentTypePresidentialDocument
	default:
		return domain.DocumentTypeOther
	}
}

// documentURL returns html_url when it is an absolute http(s) URL and the
// public short link otherwise. html_url is optional upstream.
func documentURL(id, htmlURL string) string {
	u, err := url.Parse(strings.TrimSpace(htmlURL))
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return publicDocumentURL + url.PathEscape(id)
	}
	return u.String()
}

// agencies deduplicates agencies by case-insensitive name and sorts them
// by key. The first display form seen wins.
func agencies(raw []domain.RawAgency) []domain.Agency {
	seen := make(map[string]bool, len(raw))
	out := make([]domain.Agency, 0, len(raw))
	for _, a := range raw {
		name := a.Name
		if strings.TrimSpace(name) == "" {
			name = a.RawName
		}
		display, key := domain.NormaliseAgencyName(cleanText(name))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, domain.Agency{ID: key, Name: display, Acronym: strings.TrimSpace(a.Acronym)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
