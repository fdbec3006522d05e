package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/c360studio/spectrace/export"
)

// Writer emits report files into a directory. Every file is replaced
// atomically so reruns overwrite rather than append.
type Writer struct {
	Dir     string
	Formats []export.Format
	Profile export.Profile
	Logger  *slog.Logger
}

// NewWriter creates a writer for dir. A nil logger uses slog.Default().
func NewWriter(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{Dir: dir, Profile: export.ProfileFull, Logger: logger}
}

// Write emits every report file and returns their paths.
func (w *Writer) Write(r *Report) ([]string, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}

	var written []string
	emit := func(name string, data []byte) error {
		path := filepath.Join(w.Dir, name)
		if err := WriteFileAtomic(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		w.Logger.Debug("Wrote report", "path", path, "bytes", len(data))
		written = append(written, path)
		return nil
	}

	trace, err := marshal(r.Traceability())
	if err != nil {
		return nil, err
	}
	if err := emit(TraceabilityFile, trace); err != nil {
		return nil, err
	}

	index, err := marshal(r.SpecIndex())
	if err != nil {
		return nil, err
	}
	if err := emit(SpecIndexFile, index); err != nil {
		return nil, err
	}

	if err := emit(MatrixFile, []byte(RenderMatrix(r))); err != nil {
		return nil, err
	}
	if err := emit(OrphansFile, []byte(RenderOrphans(r))); err != nil {
		return nil, err
	}

	if len(w.Formats) > 0 {
		exporter := export.NewRDFExporter(w.Profile)
		exporter.AddGraph(r.Graph)
		for _, format := range w.Formats {
			info, ok := export.GetFormatInfo(format)
			if !ok {
				return nil, fmt.Errorf("unsupported format: %s", format)
			}
			out, err := exporter.Export(format)
			if err != nil {
				return nil, fmt.Errorf("export %s: %w", format, err)
			}
			if err := emit(GraphFileBase+info.Extension, []byte(out)); err != nil {
				return nil, err
			}
		}
	}

	return written, nil
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFileAtomic writes data to a temporary file in the target directory
// and renames it over path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
