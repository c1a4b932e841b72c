package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"
)

// chunkRow is the Parquet representation of one timestamp inside a chunk
// file: its absolute index on the time axis and the flattened values of all
// non-time dimensions.
type chunkRow struct {
	Index  int64     `parquet:"index"`
	Values []float32 `parquet:"values,list"`
}

// readChunk loads a chunk file into a map of time index to values. A
// missing file is an empty chunk, not an error.
func readChunk(path string) (map[int][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[int][]float32{}, nil
		}
		return nil, fmt.Errorf("open chunk: %w", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[chunkRow](f)
	defer reader.Close()

	numRows := int(reader.NumRows())
	rows := make([]chunkRow, numRows)
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read chunk rows: %w", err)
	}

	out := make(map[int][]float32, n)
	for i := 0; i < n; i++ {
		out[int(rows[i].Index)] = rows[i].Values
	}
	return out, nil
}

// writeChunk writes a chunk file atomically: rows are sorted by time index,
// written to a temp file in the same directory, and renamed over the old
// chunk.
func writeChunk(path string, rows map[int][]float32) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create chunk directory: %w", err)
	}

	indices := make([]int, 0, len(rows))
	for idx := range rows {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp chunk: %w", err)
	}
	tmpName := tmp.Name()

	writer := parquet.NewGenericWriter[chunkRow](tmp,
		parquet.Compression(&parquet.Zstd))

	buf := make([]chunkRow, 0, len(indices))
	for _, idx := range indices {
		buf = append(buf, chunkRow{Index: int64(idx), Values: rows[idx]})
	}
	if _, err := writer.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write chunk rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("close chunk writer: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp chunk: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace chunk: %w", err)
	}
	return nil
}
