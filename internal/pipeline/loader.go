package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/clausewise/internal/extract"
	"github.com/ppiankov/clausewise/internal/util"
)

// DefaultMaxBytes bounds document size
const DefaultMaxBytes = 20 << 20

// Format is the source format of a document
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
)

// Document is the analyzable text of one contract. Offsets in findings
// refer to Text.
type Document struct {
	Name   string
	Source string // file path or URL
	Format Format
	Text   string
	Size   int64 // bytes read from the source
}

// Loader reads documents from files or http(s) URLs
type Loader struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
}

// NewLoader creates a loader. maxBytes <= 0 uses DefaultMaxBytes.
func NewLoader(timeout time.Duration, userAgent string, maxBytes int64, proxy util.ProxyConfig) *Loader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	client := util.NewHTTPClient(timeout, proxy)
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 3 {
			return fmt.Errorf("stopped after 3 redirects")
		}
		return nil
	}
	return &Loader{
		httpClient: client,
		userAgent:  userAgent,
		maxBytes:   maxBytes,
	}
}

// LoadDocument reads a local .txt or .html file
func LoadDocument(path string) (*Document, error) {
	return NewLoader(30*time.Second, "", 0, util.ProxyConfig{}).Load(context.Background(), path)
}

// Load reads a document. Text files keep form feeds as page breaks; HTML
// is reduced to its visible text.
func (l *Loader) Load(ctx context.Context, source string) (*Document, error) {
	if isURL(source) {
		return l.fetch(ctx, source)
	}

	format, err := formatFromExt(filepath.Ext(source))
	if err != nil {
		return nil, err
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer func() { _ = f.Close() }()

	body, err := l.read(f)
	if err != nil {
		return nil, err
	}
	return decode(filepath.Base(source), source, format, body)
}

func (l *Loader) fetch(ctx context.Context, rawURL string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}
	req.Header.Set("Accept", "text/html,text/plain;q=0.9")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	format := FormatText
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
		switch {
		case mt == "text/html" || mt == "application/xhtml+xml":
			format = FormatHTML
		case strings.HasPrefix(mt, "text/"):
		default:
			return nil, fmt.Errorf("unsupported content type %q", mt)
		}
	} else if f, err := formatFromExt(path.Ext(resp.Request.URL.Path)); err == nil {
		format = f
	}

	body, err := l.read(resp.Body)
	if err != nil {
		return nil, err
	}
	return decode(documentName(resp.Request.URL), rawURL, format, body)
}

func (l *Loader) read(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if int64(len(body)) > l.maxBytes {
		return nil, fmt.Errorf("document larger than %d bytes", l.maxBytes)
	}
	return body, nil
}

func decode(name, source string, format Format, body []byte) (*Document, error) {
	doc := &Document{Name: name, Source: source, Format: format, Size: int64(len(body))}

	switch format {
	case FormatHTML:
		text, err := extract.HTMLText(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		doc.Text = text
	default:
		text := string(body)
		if !utf8.ValidString(text) {
			text = strings.ToValidUTF8(text, "�")
		}
		doc.Text = strings.ReplaceAll(text, "\r\n", "\n")
	}
	return doc, nil
}

func formatFromExt(ext string) (Format, error) {
	switch strings.ToLower(ext) {
	case ".txt", ".text", ".md":
		return FormatText, nil
	case ".html", ".htm", ".xhtml":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported document type %q (supported: .txt, .html)", ext)
	}
}

func isURL(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// documentName is the last path segment of a URL, or its host
func documentName(u *url.URL) string {
	p := strings.Trim(u.Path, "/")
	if p == "" {
		return u.Host
	}
	return path.Base(p)
}

// LoadFacts reads a JSON object of extracted facts. Numbers are kept
// exact as json.Number.
func LoadFacts(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read facts: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var facts map[string]any
	if err := dec.Decode(&facts); err != nil {
		return nil, fmt.Errorf("parse facts %s: %w", path, err)
	}
	if facts == nil {
		facts = map[string]any{}
	}
	return facts, nil
}

// FactsPathFor returns the sidecar facts file of a document:
// contract.txt -> contract.facts.json
func FactsPathFor(docPath string) string {
	return strings.TrimSuffix(docPath, filepath.Ext(docPath)) + ".facts.json"
}

// LoadSidecarFacts loads the document's sidecar facts if the file exists
func LoadSidecarFacts(docPath string) (map[string]any, error) {
	p := FactsPathFor(docPath)
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return LoadFacts(p)
}
