package tiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrToolsMissing is returned when tippecanoe or pmtiles is not installed.
var ErrToolsMissing = errors.New("tile tools missing")

var installHints = map[string]string{
	"tippecanoe": "tippecanoe: macOS `brew install tippecanoe`, Ubuntu `sudo apt-get install tippecanoe`, others https://github.com/felt/tippecanoe",
	"pmtiles":    "pmtiles: `go install github.com/protomaps/go-pmtiles/cmd/pmtiles@latest`",
}

// Runner executes an external command.
type Runner func(ctx context.Context, name string, args ...string) error

// ExecRunner runs commands with os/exec and folds stderr into the error.
func ExecRunner(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// External shells out to tippecanoe for MBTiles and the pmtiles CLI for the
// conversion.
type External struct {
	TempDir  string
	LookPath func(string) (string, error)
	Run      Runner
}

// NewExternal creates an engine that keeps intermediate MBTiles in tempDir.
func NewExternal(tempDir string) *External {
	return &External{TempDir: tempDir, LookPath: exec.LookPath, Run: ExecRunner}
}

func (e *External) Name() string { return "external" }

// Check looks up both tools and lists install hints for the missing ones.
func (e *External) Check(context.Context) error {
	var missing []string
	for _, tool := range []string{"tippecanoe", "pmtiles"} {
		if _, err := e.LookPath(tool); err != nil {
			missing = append(missing, installHints[tool])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: install\n  %s", ErrToolsMissing, strings.Join(missing, "\n  "))
	}
	return nil
}

// Build runs tippecanoe then pmtiles convert. The MBTiles file is removed
// once converted.
func (e *External) Build(ctx context.Context, layer Layer, input, output string) error {
	if err := os.MkdirAll(e.TempDir, 0755); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	mbtiles := filepath.Join(e.TempDir, layer.Name+".mbtiles")
	// tippecanoe refuses to overwrite.
	os.Remove(mbtiles)

	args := []string{
		"--output=" + mbtiles,
		"--minimum-zoom=" + strconv.Itoa(layer.MinZoom),
		"--maximum-zoom=" + strconv.Itoa(layer.MaxZoom),
		"--layer=" + layer.Name,
	}
	args = append(args, layer.Options...)
	args = append(args, input)
	if err := e.Run(ctx, "tippecanoe", args...); err != nil {
		return fmt.Errorf("mbtiles conversion: %w", err)
	}

	if err := e.Run(ctx, "pmtiles", "convert", mbtiles, output); err != nil {
		return fmt.Errorf("pmtiles conversion: %w", err)
	}
	if err := os.Remove(mbtiles); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", mbtiles, err)
	}
	return nil
}
