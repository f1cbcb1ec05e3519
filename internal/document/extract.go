package document

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Extractor returns the plain text of a document file.
type Extractor interface {
	Extract(ctx context.Context, path string, kind Kind) (string, error)
}

// FileExtractor reads PDF files through the pdftotext tool and DOCX files
// directly from their XML body.
type FileExtractor struct {
	// PDFToText is the pdftotext executable. Default: "pdftotext".
	PDFToText string
	// Timeout bounds one pdftotext run. Default: 2 minutes.
	Timeout time.Duration
}

// Extract implements Extractor.
func (e *FileExtractor) Extract(ctx context.Context, path string, kind Kind) (string, error) {
	switch kind {
	case KindPDF:
		return e.pdfText(ctx, path)
	case KindDOCX:
		return DocxText(path)
	}
	return "", fmt.Errorf("unsupported document kind %q", kind)
}

func (e *FileExtractor) pdfText(ctx context.Context, path string) (string, error) {
	bin := e.PDFToText
	if bin == "" {
		bin = "pdftotext"
	}
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if _, err := exec.LookPath(bin); err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w", bin, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tmpDir, err := os.MkdirTemp("", "drwh_pdftotext_*")
	if err != nil {
		return "", fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outPath := filepath.Join(tmpDir, "out.txt")
	cmd := exec.CommandContext(callCtx, bin, "-enc", "UTF-8", "-q", path, outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if s := strings.TrimSpace(stderr.String()); s != "" {
			return "", fmt.Errorf("pdftotext: %w; stderr=%s", err, s)
		}
		return "", fmt.Errorf("pdftotext: %w", err)
	}

	b, err := os.ReadFile(outPath)
	if err != nil {
		return "", fmt.Errorf("read pdftotext output: %w", err)
	}
	return string(b), nil
}

// DocxText returns the paragraphs of a .docx body, one per line.
func DocxText(path string) (string, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer rc.Close()

	var body []byte
	for _, f := range rc.File {
		if f.Name != "word/document.xml" {
			continue
		}
		r, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open docx body: %w", err)
		}
		body, err = io.ReadAll(r)
		_ = r.Close()
		if err != nil {
			return "", fmt.Errorf("read docx body: %w", err)
		}
		break
	}
	if body == nil {
		return "", fmt.Errorf("docx body not found in %s", path)
	}
	return docxParagraphs(body)
}

func docxParagraphs(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var (
		inText bool
		para   strings.Builder
		out    strings.Builder
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx body: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br":
				para.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				out.WriteString(para.String())
				out.WriteByte('\n')
				para.Reset()
			}
		}
	}
	return out.String(), nil
}
