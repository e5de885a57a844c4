package ingest

import (
	"context"
	"io"
	"time"
)

// Record is one decoded JSON object as received from a source, before any
// normalization.
type Record map[string]any

// SourceKind identifies which field-mapping table applies to a record.
type SourceKind string

const (
	KindEnhanced SourceKind = "enhanced"
	KindLegacy   SourceKind = "legacy"
	KindEU       SourceKind = "eu"
	KindMock     SourceKind = "mock"
	KindListing  SourceKind = "listing"
)

// FetchedDocument represents the raw result of a fetch operation.
type FetchedDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
	FetchedAt   time.Time
	Headers     map[string][]string
}

// Request describes a single call to a remote endpoint.
type Request struct {
	Method string
	URL    string
	Body   []byte
	// Fetch overrides the fetcher's defaults for this call.
	Fetch FetchConfig
}

// Fetcher performs a single remote call. Implementations return an error for
// timeouts and non-2xx responses so the caller can fall back.
type Fetcher interface {
	Do(ctx context.Context, req Request) (*FetchedDocument, error)
}
