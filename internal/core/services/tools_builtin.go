package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
)

// Built-in tool names.
const (
	ToolSearchDocuments = "search_documents"
	ToolGetDocument     = "get_document"
	ToolListAgencies    = "list_agencies"
	ToolCountDocuments  = "count_documents"
)

const (
	// defaultToolRows is used when a call omits limit.
	defaultToolRows = 10

	// maxQueryLength bounds free-text arguments.
	maxQueryLength = 200

	// searchAbstractChars trims abstracts in search listings.
	searchAbstractChars = 300

	// detailAbstractChars trims abstracts in get_document.
	detailAbstractChars = 4000

	// detailFullTextChars trims the document body in get_document.
	detailFullTextChars = 5000

	datePattern = `^\d{4}-\d{2}-\d{2}$`
)

// documentTools implements the read-only document tools over a reader.
type documentTools struct {
	reader  driven.DocumentReader
	maxRows int
}

// RegisterDocumentTools registers search_documents, get_document,
// list_agencies and count_documents. Only read access is ever granted.
func RegisterDocumentTools(r *ToolRegistry, reader driven.DocumentReader, cfg domain.ToolsConfig) error {
	t := &documentTools{reader: reader, maxRows: cfg.MaxRows}
	if t.maxRows <= 0 {
		t.maxRows = defaultToolRows
	}

	tools := []struct {
		spec    domain.ToolSpec
		handler ToolHandler
	}{
		{t.searchSpec(), t.searchDocuments},
		{t.getSpec(), t.getDocument},
		{t.agenciesSpec(), t.listAgencies},
		{t.countSpec(), t.countDocuments},
	}
	for _, tool := range tools {
		if err := r.Register(tool.spec, tool.handler); err != nil {
			return err
		}
	}
	return nil
}

// --- Schemas ---

func objectSchema(properties map[string]any, required ...string) json.RawMessage {
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	data, err := json.Marshal(schema)
	if err != nil {
		panic(err) // static schema
	}
	return data
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "minLength": 1, "maxLength": maxQueryLength, "description": description}
}

func dateProp(description string) map[string]any {
	return map[string]any{"type": "string", "pattern": datePattern, "description": description + " (YYYY-MM-DD, inclusive)"}
}

func documentTypeProp() map[string]any {
	return map[string]any{
		"type":        "string",
		"enum":        domain.DocumentTypes,
		"description": "Restrict to one document type",
	}
}

func (t *documentTools) limitProp() map[string]any {
	return map[string]any{
		"type":        "integer",
		"minimum":     1,
		"maximum":     t.maxRows,
		"description": fmt.Sprintf("Maximum rows to return (default %d)", min(defaultToolRows, t.maxRows)),
	}
}

func (t *documentTools) searchSpec() domain.ToolSpec {
	return domain.ToolSpec{
		Name: ToolSearchDocuments,
		Description: "Search stored Federal Register documents, newest first. " +
			"Filters combine with AND. Use for questions about which documents were published.",
		Parameters: objectSchema(map[string]any{
			"query":            stringProp("Literal text to find in the title, abstract or stored full text"),
			"document_type":    documentTypeProp(),
			"agency":           stringProp("Literal text to find in an agency name"),
			"published_after":  dateProp("Earliest publication date"),
			"published_before": dateProp("Latest publication date"),
			"limit":            t.limitProp(),
		}),
	}
}

func (t *documentTools) getSpec() domain.ToolSpec {
	return domain.ToolSpec{
		Name: ToolGetDocument,
		Description: "Fetch one stored document by its Federal Register document number, " +
			"including an excerpt of its full text when stored. Use it to summarise a document.",
		Parameters: objectSchema(map[string]any{
			"document_id": map[string]any{
				"type":        "string",
				"pattern":     `^[A-Za-z0-9-]{1,32}$`,
				"description": "Document number, e.g. 2025-01234",
			},
		}, "document_id"),
	}
}

func (t *documentTools) agenciesSpec() domain.ToolSpec {
	return domain.ToolSpec{
		Name:        ToolListAgencies,
		Description: "List agencies with stored documents and their document counts.",
		Parameters: objectSchema(map[string]any{
			"name_contains": stringProp("Literal text to find in the agency name"),
			"limit":         t.limitProp(),
		}),
	}
}

func (t *documentTools) countSpec() domain.ToolSpec {
	return domain.ToolSpec{
		Name:        ToolCountDocuments,
		Description: "Count stored documents matching the filters, broken down by document type.",
		Parameters: objectSchema(map[string]any{
			"document_type":    documentTypeProp(),
			"agency":           stringProp("Literal text to find in an agency name"),
			"published_after":  dateProp("Earliest publication date"),
			"published_before": dateProp("Latest publication date"),
		}),
	}
}

// --- Arguments ---

type filterArgs struct {
	DocumentType    string `json:"document_type"`
	Agency          string `json:"agency"`
	PublishedAfter  string `json:"published_after"`
	PublishedBefore string `json:"published_before"`
}

type searchArgs struct {
	filterArgs
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type getArgs struct {
	DocumentID string `json:"document_id"`
}

type agenciesArgs struct {
	NameContains string `json:"name_contains"`
	Limit        int    `json:"limit"`
}

// query converts filter arguments to a DocumentQuery. Dates are checked
// here because the schema only constrains their shape.
func (a *filterArgs) query(tool string) (domain.DocumentQuery, error) {
	q := domain.DocumentQuery{
		Type:   domain.DocumentType(a.DocumentType),
		Agency: a.Agency,
	}
	var err error
	if q.PublishedAfter, err = optionalDate(a.PublishedAfter); err != nil {
		return q, &domain.InvalidToolCallError{Tool: tool, Reason: "published_after is not a calendar date"}
	}
	if q.PublishedBefore, err = optionalDate(a.PublishedBefore); err != nil {
		return q, &domain.InvalidToolCallError{Tool: tool, Reason: "published_before is not a calendar date"}
	}
	if !q.PublishedAfter.IsZero() && !q.PublishedBefore.IsZero() && q.PublishedAfter.After(q.PublishedBefore) {
		return q, &domain.InvalidToolCallError{Tool: tool, Reason: "published_after is later than published_before"}
	}
	return q, nil
}

func optionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return domain.ParseDate(s)
}

func decodeArgs(tool string, raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return &domain.InvalidToolCallError{Tool: tool, Reason: "arguments do not match the schema"}
	}
	return nil
}

func (t *documentTools) limit(requested int) int {
	if requested <= 0 {
		return min(defaultToolRows, t.maxRows)
	}
	return min(requested, t.maxRows)
}

// --- Rows ---

type documentRow struct {
	DocumentID      string   `json:"document_id"`
	Title           string   `json:"title"`
	DocumentType    string   `json:"document_type"`
	PublicationDate string   `json:"publication_date"`
	EffectiveDate   string   `json:"effective_date,omitempty"`
	Significant     bool     `json:"significant,omitempty"`
	Agencies        []string `json:"agencies"`
	Abstract        string   `json:"abstract,omitempty"`
	URL             string   `json:"url"`
}

func newDocumentRow(doc *domain.Document, abstractChars int) documentRow {
	row := documentRow{
		DocumentID:      doc.ID,
		Title:           doc.Title,
		DocumentType:    doc.Type.String(),
		PublicationDate: domain.FormatDate(doc.PublicationDate),
		Significant:     doc.Significant,
		Agencies:        doc.AgencyNames(),
		Abstract:        truncateRunes(doc.Abstract, abstractChars),
		URL:             doc.SourceURL,
	}
	if !doc.EffectiveDate.IsZero() {
		row.EffectiveDate = domain.FormatDate(doc.EffectiveDate)
	}
	return row
}

// documentDetailRow is the get_document shape. Agencies carry acronyms.
type documentDetailRow struct {
	documentRow
	Agencies []agencyRef `json:"agencies"`
	FullText string      `json:"full_text,omitempty"`
}

type agencyRef struct {
	Name    string `json:"name"`
	Acronym string `json:"acronym,omitempty"`
}

func newDocumentDetailRow(doc *domain.Document) documentDetailRow {
	row := documentDetailRow{
		documentRow: newDocumentRow(doc, detailAbstractChars),
		Agencies:    make([]agencyRef, 0, len(doc.Agencies)),
		FullText:    truncateRunes(doc.FullText, detailFullTextChars),
	}
	for _, a := range doc.Agencies {
		row.Agencies = append(row.Agencies, agencyRef{Name: a.Name, Acronym: a.Acronym})
	}
	return row
}

type agencyRow struct {
	Name      string `json:"name"`
	Acronym   string `json:"acronym,omitempty"`
	Documents int    `json:"documents"`
}

type typeCountRow struct {
	DocumentType string `json:"document_type"`
	Count        int    `json:"count"`
}

type countRow struct {
	Total  int            `json:"total"`
	ByType []typeCountRow `json:"by_type"`
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// --- Handlers ---

func (t *documentTools) searchDocuments(ctx context.Context, raw json.RawMessage) (*domain.ToolResult, error) {
	var args searchArgs
	if err := decodeArgs(ToolSearchDocuments, raw, &args); err != nil {
		return nil, err
	}
	q, err := args.query(ToolSearchDocuments)
	if err != nil {
		return nil, err
	}
	q.Keyword = args.Query
	limit := t.limit(args.Limit)
	q.Limit = limit + 1

	docs, err := t.reader.SearchDocuments(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}

	result := &domain.ToolResult{Rows: []any{}}
	if len(docs) > limit {
		docs = docs[:limit]
		result.Truncated = true
	}
	for i := range docs {
		result.Rows = append(result.Rows, newDocumentRow(&docs[i], searchAbstractChars))
	}
	return result, nil
}

func (t *documentTools) getDocument(ctx context.Context, raw json.RawMessage) (*domain.ToolResult, error) {
	var args getArgs
	if err := decodeArgs(ToolGetDocument, raw, &args); err != nil {
		return nil, err
	}

	doc, err := t.reader.GetDocument(ctx, args.DocumentID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.ToolResult{Rows: []any{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &domain.ToolResult{Rows: []any{newDocumentDetailRow(doc)}}, nil
}

func (t *documentTools) listAgencies(ctx context.Context, raw json.RawMessage) (*domain.ToolResult, error) {
	var args agenciesArgs
	if err := decodeArgs(ToolListAgencies, raw, &args); err != nil {
		return nil, err
	}
	limit := t.limit(args.Limit)

	agencies, err := t.reader.ListAgencies(ctx, domain.AgencyQuery{NameContains: args.NameContains, Limit: limit + 1})
	if err != nil {
		return nil, fmt.Errorf("list agencies: %w", err)
	}

	result := &domain.ToolResult{Rows: []any{}}
	if len(agencies) > limit {
		agencies = agencies[:limit]
		result.Truncated = true
	}
	for _, a := range agencies {
		result.Rows = append(result.Rows, agencyRow{Name: a.Name, Acronym: a.Acronym, Documents: a.Documents})
	}
	return result, nil
}

func (t *documentTools) countDocuments(ctx context.Context, raw json.RawMessage) (*domain.ToolResult, error) {
	var args filterArgs
	if err := decodeArgs(ToolCountDocuments, raw, &args); err != nil {
		return nil, err
	}
	q, err := args.query(ToolCountDocuments)
	if err != nil {
		return nil, err
	}

	counts, err := t.reader.CountByType(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	row := countRow{ByType: make([]typeCountRow, 0, len(counts))}
	for _, c := range counts {
		row.Total += c.Count
		row.ByType = append(row.ByType, typeCountRow{DocumentType: c.Type.String(), Count: c.Count})
	}
	return &domain.ToolResult{Rows: []any{row}}, nil
}
