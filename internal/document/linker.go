package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clinicaldwh/drwh/internal/types"
)

// Resolver maps an external hospital identifier to a canonical patient_num.
type Resolver interface {
	ResolvePatientNum(ctx context.Context, externalID string) (int64, error)
}

// Options configures a Linker.
type Options struct {
	// Workers bounds concurrent text extraction. Resolution is sequential.
	// Default: 1
	Workers int

	// Now stamps UpdateDate. Default: time.Now
	Now func() time.Time

	// OnLinked is called after each document is linked, in file order.
	OnLinked func(doc types.Document)
}

// Linker builds document records: it parses the file name, extracts the
// text, resolves the external identifier and searches date and author.
type Linker struct {
	resolver  Resolver
	extractor Extractor
	opts      Options
}

// NewLinker creates a linker.
func NewLinker(resolver Resolver, extractor Extractor, opts Options) *Linker {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Linker{resolver: resolver, extractor: extractor, opts: opts}
}

// ListDocuments returns the document file names of dir in lexical order.
// Sub-directories, hidden files and .xlsx files are left out.
func ListDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read document directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || skipFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// LinkDirectory links every document of dir. Any bad file name, extraction
// failure or unresolved identifier aborts the whole directory.
func (l *Linker) LinkDirectory(ctx context.Context, dir string) ([]types.Document, error) {
	names, err := ListDocuments(dir)
	if err != nil {
		return nil, err
	}

	infos := make([]FileInfo, len(names))
	for i, name := range names {
		info, err := ParseFilename(name)
		if err != nil {
			return nil, err
		}
		infos[i] = info
	}

	texts := make([]string, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Workers)
	for i := range names {
		g.Go(func() error {
			text, err := l.extractor.Extract(gctx, filepath.Join(dir, names[i]), infos[i].Kind)
			if err != nil {
				return fmt.Errorf("extract %s: %w", names[i], err)
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs := make([]types.Document, 0, len(names))
	for i, name := range names {
		doc, err := l.build(ctx, filepath.Join(dir, name), infos[i], texts[i])
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// LinkFile links a single document file.
func (l *Linker) LinkFile(ctx context.Context, path string) (types.Document, error) {
	info, err := ParseFilename(filepath.Base(path))
	if err != nil {
		return types.Document{}, err
	}
	text, err := l.extractor.Extract(ctx, path, info.Kind)
	if err != nil {
		return types.Document{}, fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}
	return l.build(ctx, path, info, text)
}

func (l *Linker) build(ctx context.Context, path string, info FileInfo, text string) (types.Document, error) {
	origin := info.Kind.Origin()
	externalID := NormalizeExternalID(origin, info.ExternalID)

	patientNum, err := l.resolver.ResolvePatientNum(ctx, externalID)
	if err != nil {
		return types.Document{}, fmt.Errorf("link %s: %w", filepath.Base(path), err)
	}

	doc := types.Document{
		PatientNum:  patientNum,
		DocumentNum: info.DocumentNum,
		Date:        SearchDate(text),
		UpdateDate:  l.opts.Now(),
		Origin:      origin,
		Text:        text,
		Author:      SearchAuthor(text),
		SourcePath:  path,
	}
	if l.opts.OnLinked != nil {
		l.opts.OnLinked(doc)
	}
	return doc, nil
}
