package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/attest-tracker/constants"
	"github.com/joseph-ayodele/attest-tracker/internal/common"
)

// stubRunner fakes pdftoppm (writes N page files) and tesseract (echoes the page name).
type stubRunner struct {
	mu       sync.Mutex
	pages    int
	failPage string
	failPPM  bool
	calls    [][]string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, append([]string{name}, args...))
	s.mu.Unlock()

	switch name {
	case "pdftoppm":
		if s.failPPM {
			return nil, []byte("broken pdf"), errors.New("exit status 1")
		}
		prefix := args[len(args)-1]
		for i := 1; i <= s.pages; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), nil, 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		base := filepath.Base(args[0])
		if base == s.failPage {
			return nil, []byte("bad page"), errors.New("exit status 1")
		}
		return []byte("text of " + base), nil, nil
	}
	return nil, nil, fmt.Errorf("unexpected command %s", name)
}

func newTestExtractor(cfg Config, r Runner, pages int) *Extractor {
	e := NewExtractor(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), WithRunner(r))
	e.pageCount = func(string) (int, error) { return pages, nil }
	return e
}

func TestExtractTextFileVerbatim(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.TXT")
	raw := "Data de início: 01/02/2024\n  Serviços  \n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	e := newTestExtractor(Config{}, &stubRunner{}, 0)
	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, raw, res.Text)
	assert.Equal(t, constants.TXT, res.SourceType)
	assert.Equal(t, "txt", res.Method)
}

func TestExtractPDFJoinsPagesInOrder(t *testing.T) {
	r := &stubRunner{pages: 11}
	e := newTestExtractor(Config{DPI: 200}, r, 11)

	res, err := e.Extract(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, 11, res.Pages)
	assert.Equal(t, constants.PDF, res.SourceType)
	assert.Equal(t, "por", res.Language)

	parts := strings.Split(res.Text, PageSeparator+"text of ")
	require.Len(t, parts, 11)
	assert.Equal(t, "text of page-1.png", parts[0])
	assert.Equal(t, "page-2.png", parts[1])
	assert.Equal(t, "page-11.png", parts[10])

	ppm := r.calls[0]
	assert.Equal(t, []string{"pdftoppm", "-r", "200", "-png", "scan.pdf"}, ppm[:5])
	assert.Contains(t, r.calls[1], "-l")
	assert.Contains(t, r.calls[1], "por")
}

func TestExtractPDFMaxPagesAndPageWarnings(t *testing.T) {
	r := &stubRunner{pages: 3, failPage: "page-2.png"}
	e := newTestExtractor(Config{MaxPages: 3}, r, 5)

	res, err := e.Extract(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "text of page-1.png text of page-3.png", res.Text)
	assert.Contains(t, r.calls[0], "-l")
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, strings.Join(res.Warnings, "|"), "tesseract")
}

func TestExtractPDFRenderFailure(t *testing.T) {
	e := newTestExtractor(Config{}, &stubRunner{failPPM: true}, 1)
	_, err := e.Extract(context.Background(), "scan.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrOCR)
}

func TestExtractPDFNoPages(t *testing.T) {
	e := newTestExtractor(Config{}, &stubRunner{pages: 0}, 0)
	_, err := e.Extract(context.Background(), "scan.pdf")
	assert.ErrorIs(t, err, common.ErrOCR)
}

func TestExtractImage(t *testing.T) {
	r := &stubRunner{}
	e := newTestExtractor(Config{TessdataDir: "/tess"}, r, 0)
	res, err := e.Extract(context.Background(), "/in/photo.jpeg")
	require.NoError(t, err)
	assert.Equal(t, "text of photo.jpeg", res.Text)
	assert.Equal(t, constants.IMAGE, res.SourceType)
	assert.Equal(t, []string{"tesseract", "/in/photo.jpeg", "stdout", "-l", "por", "--tessdata-dir", "/tess"}, r.calls[0])
}

func TestExtractUnsupported(t *testing.T) {
	e := newTestExtractor(Config{}, &stubRunner{}, 0)
	_, err := e.Extract(context.Background(), "notes.docx")
	assert.ErrorIs(t, err, common.ErrUnsupportedFile)
}

func TestSortPages(t *testing.T) {
	p := []string{"/t/page-10.png", "/t/page-2.png", "/t/page-1.png"}
	sortPages(p)
	assert.Equal(t, []string{"/t/page-1.png", "/t/page-2.png", "/t/page-10.png"}, p)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...(truncated)", truncate("abc", 2))
}
