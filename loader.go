package xslt

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
)

// Fetcher opens a URI for reading. The loader resolves relative
// references against the base URI before calling it, so uri is already
// resolved. An *http.Client-backed implementation and a
// filesystem-backed one are both reasonable callers.
type Fetcher func(ctx context.Context, uri string) (io.ReadCloser, error)

// loadedDoc is the cached outcome of one fetch+parse, success or failure.
// The document loader tolerates duplicate work on a racing cache miss
// rather than serializing loads with a mutex or sync.Once: two goroutines
// parsing the same document concurrently is wasted work, not a
// correctness problem, since treeNode values are never mutated after
// construction.
type loadedDoc struct {
	root Node
	err  error
}

// cacheKey distinguishes documents by resolved URI and by the
// whitespace-stripping configuration applied while loading them, since
// the same URI loaded under different strip-space rules yields different
// trees (spec §4.12).
type cacheKey struct {
	uri      string
	strip    string
	preserve string
}

// DocumentLoader resolves and caches documents reached via fn:document()
// or an xsl:import/xsl:include href, one tree per distinct URI plus
// strip-space configuration (spec §4.12).
type DocumentLoader struct {
	fetch Fetcher
	cache sync.Map // cacheKey -> *loadedDoc
}

// NewDocumentLoader builds a loader around fetch. A nil fetch is valid
// for stylesheets that never call fn:document() or fn:unparsed-text().
func NewDocumentLoader(fetch Fetcher) *DocumentLoader {
	return &DocumentLoader{fetch: fetch}
}

func joinPatterns(patterns []string) string { return strings.Join(patterns, "\x1f") }

func (l *DocumentLoader) resolve(uri, baseURI string) (string, error) {
	if baseURI == "" {
		return uri, nil
	}
	base, err := url.Parse(baseURI)
	if err != nil {
		return uri, nil
	}
	ref, err := url.Parse(uri)
	if err != nil {
		return uri, nil
	}
	return base.ResolveReference(ref).String(), nil
}

// Load returns the cached or freshly parsed tree for uri resolved against
// baseURI. Unlike LoadOrFail, a fetch failure is not an error: it yields
// (nil, nil), letting fn:document() report an empty node-set the way
// spec §4.12 describes for the non-throwing path.
func (l *DocumentLoader) Load(ctx context.Context, uri, baseURI string, strip, preserve []string) (Node, error) {
	doc, err := l.load(ctx, uri, baseURI, strip, preserve)
	if err != nil {
		return nil, nil
	}
	return doc.root, nil
}

// LoadOrFail is the throwing variant: a fetch or parse failure surfaces
// as CodeDocumentNotRetrievable (FODC0002) instead of being swallowed.
func (l *DocumentLoader) LoadOrFail(ctx context.Context, uri, baseURI string, strip, preserve []string) (Node, error) {
	doc, err := l.load(ctx, uri, baseURI, strip, preserve)
	if err != nil {
		return nil, NewEvalErrorAt(CodeDocumentNotRetrievable, err.Error(), uri)
	}
	return doc.root, nil
}

func (l *DocumentLoader) load(ctx context.Context, uri, baseURI string, strip, preserve []string) (*loadedDoc, error) {
	resolved, err := l.resolve(uri, baseURI)
	if err != nil {
		return nil, err
	}
	key := cacheKey{uri: resolved, strip: joinPatterns(strip), preserve: joinPatterns(preserve)}

	if v, ok := l.cache.Load(key); ok {
		doc := v.(*loadedDoc)
		return doc, doc.err
	}

	doc := l.fetchAndParse(ctx, resolved, strip, preserve)
	actual, _ := l.cache.LoadOrStore(key, doc)
	stored := actual.(*loadedDoc)
	return stored, stored.err
}

func (l *DocumentLoader) fetchAndParse(ctx context.Context, uri string, strip, preserve []string) *loadedDoc {
	if l.fetch == nil {
		return &loadedDoc{err: fmt.Errorf("document loader has no fetcher configured for %q", uri)}
	}
	rc, err := l.fetch(ctx, uri)
	if err != nil {
		return &loadedDoc{err: fmt.Errorf("fetching %q: %w", uri, err)}
	}
	defer rc.Close()

	builder := NewStreamingHandler(NewContext(nil, nil), nil, nil)
	reader := NewSourceReader(ctx, rc, 64*1024)
	if err := reader.Run(builder); err != nil {
		return &loadedDoc{err: fmt.Errorf("parsing %q: %w", uri, err)}
	}
	builder.root.MarkStreamed()
	root := builder.Root()
	if len(strip) > 0 {
		StripWhitespaceText(root, strip, preserve)
	}
	return &loadedDoc{root: root}
}
