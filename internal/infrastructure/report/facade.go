package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/alem-hub/achievement-hub/internal/domain/shared"
	"github.com/alem-hub/achievement-hub/internal/infrastructure/ranking"
	"github.com/alem-hub/achievement-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPORTERS
// ══════════════════════════════════════════════════════════════════════════════

// Exporter writes report data in one format.
type Exporter interface {
	Extension() string
	Export(w io.Writer, data *Data) error
}

// JSONExporter writes an indented JSON object.
type JSONExporter struct{}

func (JSONExporter) Extension() string { return "json" }

func (JSONExporter) Export(w io.Writer, data *Data) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(data)
}

// CSVExporter writes a header row and a value row.
type CSVExporter struct{}

func (CSVExporter) Extension() string { return "csv" }

func (CSVExporter) Export(w io.Writer, data *Data) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(data.Keys()); err != nil {
		return err
	}
	if err := cw.Write(data.Strings()); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// TextExporter writes a titled "key: value" listing.
type TextExporter struct{}

func (TextExporter) Extension() string { return "txt" }

func (TextExporter) Export(w io.Writer, data *Data) error {
	if _, err := fmt.Fprint(w, "Report\n\n"); err != nil {
		return err
	}
	for _, f := range data.Fields() {
		if _, err := fmt.Fprintf(w, "%s: %s\n", f.Key, formatValue(f.Value)); err != nil {
			return err
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FACADE
// ══════════════════════════════════════════════════════════════════════════════

// EntrySender forwards a ranking entry. *ranking.Adapter implements it.
type EntrySender interface {
	Send(ctx context.Context, entry ranking.Entry) error
}

// Facade exports a report in every configured format and then forwards the
// entry to the ranking.
type Facade struct {
	dir       string
	exporters []Exporter
	sender    EntrySender
	logger    *logger.Logger
}

// FacadeOption configures a Facade.
type FacadeOption func(*Facade)

// WithExporters replaces the exporters.
func WithExporters(exporters ...Exporter) FacadeOption {
	return func(f *Facade) { f.exporters = exporters }
}

// WithSender sets where entries are forwarded. Without it nothing is sent.
func WithSender(s EntrySender) FacadeOption {
	return func(f *Facade) { f.sender = s }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) FacadeOption {
	return func(f *Facade) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFacade creates a Facade writing into dir with the JSON, CSV, text and
// PDF exporters.
func NewFacade(dir string, opts ...FacadeOption) *Facade {
	f := &Facade{
		dir:       dir,
		exporters: []Exporter{JSONExporter{}, CSVExporter{}, TextExporter{}, PDFExporter{}},
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With(logger.Component("report_facade"))
	return f
}

// ExportersFor maps extensions to exporters, skipping unknown ones.
func ExportersFor(formats []string) []Exporter {
	known := map[string]Exporter{
		"json": JSONExporter{},
		"csv":  CSVExporter{},
		"txt":  TextExporter{},
		"pdf":  PDFExporter{},
	}
	out := make([]Exporter, 0, len(formats))
	for _, f := range formats {
		if e, ok := known[f]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Result lists what ExportAll produced.
type Result struct {
	Files       []string
	RankingSent bool
}

// ExportAll writes <dir>/<prefix>.<ext> for every exporter, then forwards the
// entry. A ranking failure is logged and reported in Result only.
func (f *Facade) ExportAll(ctx context.Context, r Report, prefix string) (Result, error) {
	if prefix == "" {
		prefix = "report"
	}
	if f.dir != "" {
		if err := os.MkdirAll(f.dir, 0o755); err != nil {
			return Result{}, shared.WrapError("report", "Export", shared.ErrExternalService, "create report directory", err)
		}
	}

	var res Result
	for _, e := range f.exporters {
		path := filepath.Join(f.dir, prefix+"."+e.Extension())
		if err := writeFile(path, func(w io.Writer) error { return e.Export(w, r.Data) }); err != nil {
			return res, shared.ErrReportExport.Detail("export %s: %v", path, err)
		}
		f.logger.Info("report exported", logger.String("format", e.Extension()), logger.String("path", path))
		res.Files = append(res.Files, path)
	}

	if f.sender == nil || r.Entry.UserID == "" {
		return res, nil
	}
	if err := f.sender.Send(ctx, r.Entry); err != nil {
		f.logger.Warn("report not forwarded to ranking", logger.UserID(r.Entry.UserID), logger.Err(err))
		return res, nil
	}
	res.RankingSent = true
	f.logger.Info("report forwarded to ranking", logger.UserID(r.Entry.UserID))
	return res, nil
}

// Formats returns the configured extensions, sorted.
func (f *Facade) Formats() []string {
	out := make([]string, 0, len(f.exporters))
	for _, e := range f.exporters {
		out = append(out, e.Extension())
	}
	sort.Strings(out)
	return out
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return write(file)
}
