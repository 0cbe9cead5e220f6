package matrix

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const marketHeader = "%%MatrixMarket matrix coordinate real general"

// InputWriter persists an input column and returns the path executors
// should be given. Path reports that path without writing anything.
type InputWriter interface {
	Write(name string, column []float64, shape Shape) (string, error)
	Path(name string) string
}

// Metadata is the JSON sidecar written next to each input file.
type Metadata struct {
	DataType  string `json:"data_type"`
	ValueType string `json:"value_type"`
	Rows      int    `json:"rows"`
	Cols      int    `json:"cols"`
	NNZ       int    `json:"nnz"`
	Format    string `json:"format"`
}

// FSWriter writes Matrix Market coordinate files under Dir.
// Write(name, ...) creates <Dir>/<name>.mtx and <Dir>/<name>.mtx.mtd.
type FSWriter struct {
	Dir string
}

// Path is where Write(name, ...) puts the matrix file.
func (w FSWriter) Path(name string) string {
	return filepath.Join(w.Dir, name+".mtx")
}

// Write implements InputWriter.
func (w FSWriter) Write(name string, column []float64, shape Shape) (string, error) {
	if shape.Rows != len(column) || shape.Cols != 1 {
		return "", fmt.Errorf("write %s: shape %dx%d does not match a column of %d values",
			name, shape.Rows, shape.Cols, len(column))
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}

	path := w.Path(name)
	if err := writeMarket(path, column, shape); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}

	meta := Metadata{
		DataType:  "matrix",
		ValueType: "double",
		Rows:      shape.Rows,
		Cols:      shape.Cols,
		NNZ:       shape.NNZ,
		Format:    "mm",
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal metadata for %s: %w", name, err)
	}
	if err := os.WriteFile(path+".mtd", append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write metadata for %s: %w", name, err)
	}
	return path, nil
}

func writeMarket(path string, column []float64, shape Shape) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	bw.WriteString(marketHeader + "\n")
	fmt.Fprintf(bw, "%d %d %d\n", shape.Rows, shape.Cols, shape.NNZ)
	for i, v := range column {
		if v == 0 {
			continue
		}
		fmt.Fprintf(bw, "%d 1 %s\n", i+1, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return bw.Flush()
}
