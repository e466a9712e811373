package telemetry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hairizuanbinnoorazman/checkout-crawler/logger"
	"github.com/hairizuanbinnoorazman/checkout-crawler/storage"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Ledger is a JSON document keyed by website then role. Writes replace one
// entry and rewrite the whole document; other entries keep their content and
// order. There is no cross-process locking, so concurrent writers race and
// the last full rewrite wins.
type Ledger struct {
	store  storage.BlobStorage
	path   string
	indent string
	logger logger.Logger
}

// NewLedger creates a ledger stored at path inside store. indent is the
// indentation used when the document is rewritten.
func NewLedger(store storage.BlobStorage, path, indent string, log logger.Logger) *Ledger {
	if indent == "" {
		indent = "  "
	}
	return &Ledger{
		store:  store,
		path:   path,
		indent: indent,
		logger: log,
	}
}

// Path returns the storage path of the document.
func (l *Ledger) Path() string {
	return l.path
}

// Set replaces the entry at document[website][role] with value.
func (l *Ledger) Set(ctx context.Context, website, role string, value []byte) error {
	if website == "" || role == "" {
		return fmt.Errorf("%w: website and role are required", ErrInvalidKey)
	}
	if !gjson.ValidBytes(value) {
		return fmt.Errorf("%w: entry for %s/%s is not valid JSON", ErrInvalidEntry, website, role)
	}

	doc, err := l.load(ctx)
	if err != nil {
		return err
	}

	out, err := sjson.SetRawBytes(doc, setPath(website, role), value)
	if err != nil {
		return fmt.Errorf("failed to merge ledger entry: %w", err)
	}
	out = pretty.PrettyOptions(out, &pretty.Options{
		Width:    80,
		Indent:   l.indent,
		SortKeys: false,
	})

	if err := l.store.Upload(ctx, l.path, bytes.NewReader(out)); err != nil {
		return fmt.Errorf("failed to write ledger %s: %w", l.path, err)
	}
	return nil
}

// Document returns the current document, or an empty object when the ledger
// does not exist yet or cannot be parsed.
func (l *Ledger) Document(ctx context.Context) ([]byte, error) {
	return l.load(ctx)
}

// Get returns the raw JSON stored under the given keys, e.g. Get(ctx, website)
// or Get(ctx, website, role).
func (l *Ledger) Get(ctx context.Context, keys ...string) ([]byte, error) {
	doc, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	res := gjson.GetBytes(doc, KeyPath(keys...))
	if !res.Exists() {
		return nil, ErrEntryNotFound
	}
	return []byte(res.Raw), nil
}

// load reads the document. A missing, empty or corrupt document is treated as
// an empty object; corruption is logged and never fails the caller.
func (l *Ledger) load(ctx context.Context) ([]byte, error) {
	data, err := storage.ReadAll(ctx, l.store, l.path)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return []byte("{}"), nil
		}
		return nil, fmt.Errorf("failed to read ledger %s: %w", l.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []byte("{}"), nil
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		l.logger.Warn(ctx, "ledger is corrupt, starting from an empty document", map[string]interface{}{
			"path":  l.path,
			"bytes": len(data),
		})
		return []byte("{}"), nil
	}
	return data, nil
}

// KeyPath builds a gjson/sjson path from literal object keys, escaping the
// characters the path syntax treats specially (websites contain dots).
func KeyPath(keys ...string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = escapeKey(k)
	}
	return strings.Join(parts, ".")
}

// setPath is KeyPath for sjson writes. All-digit components get sjson's ":"
// prefix, otherwise a missing parent is created as an array. gjson reads
// the prefix literally, so lookups keep using KeyPath.
func setPath(keys ...string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = escapeKey(k)
		if isDigits(k) {
			parts[i] = ":" + parts[i]
		}
	}
	return strings.Join(parts, ".")
}

func isDigits(k string) bool {
	if k == "" {
		return false
	}
	for _, r := range k {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func escapeKey(k string) string {
	var b strings.Builder
	for _, r := range k {
		switch r {
		case '\\', '.', '*', '?', '|', '#', '@', '!', ':', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
