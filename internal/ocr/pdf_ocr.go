package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/attest-tracker/constants"
)

// PageSeparator joins the text of consecutive pages.
const PageSeparator = " "

func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	text, pages, warns, err := e.pdfToOCR(ctx, path)
	res := ExtractionResult{
		Text:       text,
		Pages:      pages,
		SourceType: constants.PDF,
		Method:     "pdf-ocr",
		Language:   e.cfg.TesseractLang,
		Warnings:   warns,
	}
	return res, err
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	declared, cerr := e.pageCount(path)
	if cerr != nil {
		warnings = append(warnings, fmt.Sprintf("page count: %v", cerr))
		declared = 0
	}

	tmpDir, err := os.MkdirTemp("", "at-pp-*")
	if err != nil {
		return "", 0, warnings, err
	}
	defer func(dir string) {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			e.logger.Warn("failed to remove temp dir", "dir", dir, "error", rmErr)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png [-l N] <in.pdf> <tmp/page>
	args := []string{"-r", fmt.Sprintf("%d", e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", fmt.Sprintf("%d", e.cfg.MaxPages))
	}
	args = append(args, path, prefix)
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...)
	if err != nil {
		return "", 0, append(warnings, string(errb)), fmt.Errorf("pdftoppm: %w", err)
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sortPages(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, append(warnings, "pdftoppm produced no images"), errors.New("no pages rendered")
	}
	if declared > 0 && declared != len(matches) && (e.cfg.MaxPages == 0 || declared < e.cfg.MaxPages) {
		warnings = append(warnings, fmt.Sprintf("rendered %d of %d pages", len(matches), declared))
	}

	parts := make([]string, 0, len(matches))
	for _, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		if err != nil {
			if ctx.Err() != nil {
				return "", 0, warnings, ctx.Err()
			}
			warnings = append(warnings, err.Error())
			continue
		}
		parts = append(parts, txt)
		warnings = append(warnings, w...)
	}
	if len(parts) == 0 {
		return "", len(matches), warnings, errors.New("no page recognized")
	}
	return strings.Join(parts, PageSeparator), len(matches), warnings, nil
}

// sortPages orders page images numerically (page-2 before page-10).
func sortPages(paths []string) {
	num := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		i := strings.LastIndexByte(base, '-')
		n := 0
		for _, r := range base[i+1:] {
			if r < '0' || r > '9' {
				return 0
			}
			n = n*10 + int(r-'0')
		}
		return n
	}
	sort.SliceStable(paths, func(i, j int) bool { return num(paths[i]) < num(paths[j]) })
}
