package zarr

import (
	"fmt"
	"path/filepath"
)

// Matrix reads feature columns of the bundle's X array on demand. Decoded
// columns are kept in the reader's LRU cache.
type Matrix struct {
	r *Reader
}

// Dims returns (n_obs, n_features) from the bundle metadata.
func (m *Matrix) Dims() (int, int) {
	return m.r.metadata.NObs, len(m.r.metadata.Features)
}

// Column returns feature values at the given rows.
func (m *Matrix) Column(rows []int, feature int) ([]float64, error) {
	col, err := m.r.featureColumn(feature)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		if row < 0 || row >= len(col) {
			return nil, fmt.Errorf("row %d out of range (n_obs=%d)", row, len(col))
		}
		out[i] = col[row]
	}
	return out, nil
}

func (r *Reader) featureColumn(feature int) ([]float64, error) {
	if col, ok := r.columns.Get(feature); ok {
		return col, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	xPath := filepath.Join(r.basePath, "X")
	if r.xMeta == nil {
		meta, err := r.loadArrayMeta(xPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load X metadata: %w", err)
		}
		if meta.DataType != "float32" {
			return nil, fmt.Errorf("unexpected X data_type: %s", meta.DataType)
		}
		if len(meta.Shape) != 2 || len(meta.ChunkGrid.Configuration.ChunkShape) != 2 {
			return nil, fmt.Errorf("unexpected X shape: %v", meta.Shape)
		}
		if meta.Shape[0] != r.metadata.NObs || meta.Shape[1] != len(r.metadata.Features) {
			return nil, fmt.Errorf("X shape %v does not match metadata (%d, %d)", meta.Shape, r.metadata.NObs, len(r.metadata.Features))
		}
		r.xMeta = meta
	}
	meta := r.xMeta

	nObs, nFeat := meta.Shape[0], meta.Shape[1]
	if feature < 0 || feature >= nFeat {
		return nil, fmt.Errorf("feature index out of range: %d (n_features=%d)", feature, nFeat)
	}
	rowChunk := meta.ChunkGrid.Configuration.ChunkShape[0]
	colChunk := meta.ChunkGrid.Configuration.ChunkShape[1]
	if rowChunk <= 0 || colChunk <= 0 {
		return nil, fmt.Errorf("invalid X chunk shape: %v", meta.ChunkGrid.Configuration.ChunkShape)
	}

	featChunk := feature / colChunk
	featOffset := feature % colChunk
	colLen := min(colChunk, nFeat-featChunk*colChunk)

	col := make([]float64, nObs)
	for rc := 0; rc < ceilDiv(nObs, rowChunk); rc++ {
		rowStart := rc * rowChunk
		rowLen := min(rowChunk, nObs-rowStart)

		data, err := r.readChunkAt(xPath, meta, []int{rc, featChunk})
		if err != nil {
			return nil, fmt.Errorf("failed to load X chunk %d/%d: %w", rc, featChunk, err)
		}
		stride, err := chunkStride(len(data), rowLen, colChunk, colLen)
		if err != nil {
			return nil, fmt.Errorf("X chunk %d/%d: %w", rc, featChunk, err)
		}
		for i := 0; i < rowLen; i++ {
			col[rowStart+i] = decodeElement(data[(i*stride+featOffset)*4:], "float32")
		}
	}

	r.columns.Add(feature, col)
	return col, nil
}

// chunkStride returns the row stride, in elements, of a decoded 2-D float32
// chunk holding rowLen valid rows. Edge chunks are normally padded to the
// full chunk shape; chunks trimmed to the array bounds are accepted too.
func chunkStride(nbytes, rowLen, colChunk, colLen int) (int, error) {
	switch {
	case nbytes >= rowLen*colChunk*4:
		return colChunk, nil
	case nbytes == rowLen*colLen*4:
		return colLen, nil
	}
	return 0, fmt.Errorf("chunk has %d bytes, expected %d (padded) or %d (trimmed)", nbytes, rowLen*colChunk*4, rowLen*colLen*4)
}
