package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deepgraph/backend/pkg/graph"
	"github.com/deepgraph/backend/pkg/logger"
)

// FileExporter writes <name>_graph.json and <name>_report.md into Dir.
type FileExporter struct {
	Dir string
}

func NewFileExporter(dir string) *FileExporter {
	return &FileExporter{Dir: dir}
}

func (e *FileExporter) Export(ctx context.Context, res *graph.Result) (Location, error) {
	if err := ctx.Err(); err != nil {
		return Location{}, err
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return Location{}, fmt.Errorf("create output dir: %w", err)
	}

	data, err := Marshal(res)
	if err != nil {
		return Location{}, fmt.Errorf("marshal graph: %w", err)
	}

	base := BaseName(res)
	loc := Location{
		Graph:  filepath.Join(e.Dir, base+graphSuffix),
		Report: filepath.Join(e.Dir, base+reportSuffix),
	}
	if err := writeFileAtomic(loc.Graph, data); err != nil {
		return Location{}, err
	}
	if err := writeFileAtomic(loc.Report, []byte(graph.Report(res))); err != nil {
		return Location{}, err
	}

	logger.Info("[Export] Wrote graph", "graph", loc.Graph, "report", loc.Report)
	return loc, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
