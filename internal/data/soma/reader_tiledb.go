//go:build soma

package soma

import (
	"fmt"
	"math"
	"os"
	"sync"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// varIDColumn holds feature names in ms/RNA/var.
const varIDColumn = "gene_id"

// Reader provides SOMA reads via TileDB arrays.
type Reader struct {
	experimentURI string
	ctx           *tiledb.Context

	featOnce sync.Once
	featMap  map[string]int64 // feature name -> var soma_joinid
	featErr  error
}

func NewReader(somaPath string) (*Reader, error) {
	uri, err := ResolveExperimentURI(somaPath)
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(uri); statErr != nil {
		return nil, fmt.Errorf("soma experiment not found at %s: %w", uri, statErr)
	}

	ctx, err := tiledb.NewContext(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create TileDB context: %w", err)
	}
	return &Reader{experimentURI: uri, ctx: ctx}, nil
}

func (r *Reader) Supported() bool { return true }

func (r *Reader) ExperimentURI() string { return r.experimentURI }

// Close frees the TileDB context.
func (r *Reader) Close() {
	if r.ctx != nil {
		r.ctx.Free()
	}
}

// FeatureJoinID returns the var soma_joinid of a feature.
func (r *Reader) FeatureJoinID(feature string) (int64, error) {
	r.featOnce.Do(func() { r.featErr = r.loadFeatureMap() })
	if r.featErr != nil {
		return 0, r.featErr
	}
	id, ok := r.featMap[feature]
	if !ok {
		return 0, fmt.Errorf("feature not found in SOMA var: %s", feature)
	}
	return id, nil
}

// openRead opens the array at rel under the experiment for reading. The
// returned func closes and frees it.
func (r *Reader) openRead(rel string) (*tiledb.Array, func(), error) {
	uri := r.experimentURI + "/" + rel
	arr, err := tiledb.NewArray(r.ctx, uri)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open array (%s): %w", uri, err)
	}
	if err := arr.Open(tiledb.TILEDB_READ); err != nil {
		arr.Free()
		return nil, nil, fmt.Errorf("failed to open array for read (%s): %w", uri, err)
	}
	return arr, func() { arr.Close(); arr.Free() }, nil
}

// FeatureValues reads one feature at the given observation joinids. The
// result is sparse: joinids absent from the map are zero.
func (r *Reader) FeatureValues(feature string, obsJoinIDs []int64) (map[int64]float32, error) {
	featID, err := r.FeatureJoinID(feature)
	if err != nil {
		return nil, err
	}
	if len(obsJoinIDs) == 0 {
		return map[int64]float32{}, nil
	}

	arr, release, err := r.openRead("ms/RNA/X/data")
	if err != nil {
		return nil, err
	}
	defer release()

	sub, err := arr.NewSubarray()
	if err != nil {
		return nil, fmt.Errorf("failed to create subarray: %w", err)
	}
	defer sub.Free()
	for _, id := range obsJoinIDs {
		if err := sub.AddRangeByName("soma_dim_0", tiledb.MakeRange[int64](id, id)); err != nil {
			return nil, fmt.Errorf("failed to add obs range: %w", err)
		}
	}
	if err := sub.AddRangeByName("soma_dim_1", tiledb.MakeRange[int64](featID, featID)); err != nil {
		return nil, fmt.Errorf("failed to add feature range: %w", err)
	}

	q, err := tiledb.NewQuery(r.ctx, arr)
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}
	defer q.Free()
	if err := q.SetSubarray(sub); err != nil {
		return nil, fmt.Errorf("failed to set subarray: %w", err)
	}
	_ = q.SetLayout(tiledb.TILEDB_UNORDERED)

	// At most one value per requested observation.
	n := len(obsJoinIDs)
	obsOut := make([]int64, n)
	featOut := make([]int64, n)
	valOut := make([]float32, n)
	nullable, err := attributeNullable(arr, "soma_data")
	if err != nil {
		return nil, fmt.Errorf("failed to inspect soma_data nullable: %w", err)
	}
	var valid []uint8
	if nullable {
		valid = make([]uint8, n)
	}

	if _, err := q.SetDataBuffer("soma_dim_0", obsOut); err != nil {
		return nil, fmt.Errorf("failed to set buffer soma_dim_0: %w", err)
	}
	if _, err := q.SetDataBuffer("soma_dim_1", featOut); err != nil {
		return nil, fmt.Errorf("failed to set buffer soma_dim_1: %w", err)
	}
	if _, err := q.SetDataBuffer("soma_data", valOut); err != nil {
		return nil, fmt.Errorf("failed to set buffer soma_data: %w", err)
	}
	if nullable {
		if _, err := q.SetValidityBuffer("soma_data", valid); err != nil {
			return nil, fmt.Errorf("failed to set validity buffer soma_data: %w", err)
		}
	}

	if err := q.Submit(); err != nil {
		return nil, fmt.Errorf("query submit failed: %w", err)
	}
	status, err := q.Status()
	if err != nil {
		return nil, fmt.Errorf("query status failed: %w", err)
	}
	if status != tiledb.TILEDB_COMPLETED && status != tiledb.TILEDB_INCOMPLETE {
		return nil, fmt.Errorf("unexpected query status: %v", status)
	}

	elems, err := q.ResultBufferElements()
	if err != nil {
		return nil, fmt.Errorf("failed to get result buffer elements: %w", err)
	}
	got := min(int(elems["soma_data"][1]), n)
	gotValid := 0
	if nullable {
		gotValid = min(int(elems["soma_data"][2]), n)
	}

	values := make(map[int64]float32, got)
	for i := 0; i < got; i++ {
		if nullable && i < gotValid && valid[i] == 0 {
			continue
		}
		values[obsOut[i]] = valOut[i]
	}
	return values, nil
}

// loadFeatureMap streams (soma_joinid, gene_id) pairs out of the var dataframe.
func (r *Reader) loadFeatureMap() error {
	arr, release, err := r.openRead("ms/RNA/var")
	if err != nil {
		return err
	}
	defer release()

	ned, isEmpty, err := arr.NonEmptyDomainFromName("soma_joinid")
	if err != nil {
		return fmt.Errorf("failed to get var non-empty domain: %w", err)
	}
	if isEmpty || ned == nil {
		r.featMap = map[string]int64{}
		return nil
	}
	minID, maxID, err := boundsMinMaxInt64(ned.Bounds)
	if err != nil {
		return fmt.Errorf("failed to parse var non-empty domain bounds: %w", err)
	}

	sub, err := arr.NewSubarray()
	if err != nil {
		return fmt.Errorf("failed to create var subarray: %w", err)
	}
	defer sub.Free()
	if err := sub.AddRangeByName("soma_joinid", tiledb.MakeRange[int64](minID, maxID)); err != nil {
		return fmt.Errorf("failed to set var range: %w", err)
	}

	q, err := tiledb.NewQuery(r.ctx, arr)
	if err != nil {
		return fmt.Errorf("failed to create var query: %w", err)
	}
	defer q.Free()
	if err := q.SetSubarray(sub); err != nil {
		return fmt.Errorf("failed to set var subarray: %w", err)
	}
	if err := q.SetLayout(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return fmt.Errorf("failed to set var query layout: %w", err)
	}

	const batch = 4096
	joinIDs := make([]int64, batch)
	offsets := make([]uint64, batch)
	nullable, err := attributeNullable(arr, varIDColumn)
	if err != nil {
		return fmt.Errorf("failed to inspect %s nullable: %w", varIDColumn, err)
	}
	var valid []uint8
	if nullable {
		valid = make([]uint8, batch)
	}
	names := make([]byte, 1<<20)

	m := make(map[string]int64, 32768)
	for {
		// Buffer sizes are in/out parameters, so reset them before every submit.
		if _, err := q.SetDataBuffer("soma_joinid", joinIDs); err != nil {
			return fmt.Errorf("failed to set buffer soma_joinid: %w", err)
		}
		if _, err := q.SetOffsetsBuffer(varIDColumn, offsets); err != nil {
			return fmt.Errorf("failed to set offsets buffer %s: %w", varIDColumn, err)
		}
		if _, err := q.SetDataBuffer(varIDColumn, names); err != nil {
			return fmt.Errorf("failed to set data buffer %s: %w", varIDColumn, err)
		}
		if nullable {
			if _, err := q.SetValidityBuffer(varIDColumn, valid); err != nil {
				return fmt.Errorf("failed to set validity buffer %s: %w", varIDColumn, err)
			}
		}

		if err := q.Submit(); err != nil {
			return fmt.Errorf("var query submit failed: %w", err)
		}
		status, err := q.Status()
		if err != nil {
			return fmt.Errorf("var query status failed: %w", err)
		}
		elems, err := q.ResultBufferElements()
		if err != nil {
			return fmt.Errorf("var query ResultBufferElements failed: %w", err)
		}

		usedJoin := min(int(elems["soma_joinid"][1]), len(joinIDs))
		usedOffsets := min(int(elems[varIDColumn][0]), len(offsets))
		usedBytes := min(int(elems[varIDColumn][1]), len(names))
		usedValid := 0
		if nullable {
			usedValid = min(int(elems[varIDColumn][2]), len(valid))
		}

		if status == tiledb.TILEDB_INCOMPLETE && usedJoin == 0 && usedOffsets == 0 && usedBytes == 0 {
			if len(names) >= 64<<20 {
				return fmt.Errorf("var query made no progress with a %d byte name buffer", len(names))
			}
			names = make([]byte, len(names)*2)
			continue
		}

		lim := min(usedJoin, usedOffsets)
		if nullable && usedValid > 0 {
			lim = min(lim, usedValid)
		}
		data := names[:usedBytes]
		for i := 0; i < lim; i++ {
			if nullable && usedValid > 0 && valid[i] == 0 {
				continue
			}
			start, end := int(offsets[i]), len(data)
			if i+1 < usedOffsets {
				end = int(offsets[i+1])
			}
			if start < 0 || end < start || end > len(data) {
				continue
			}
			if name := string(data[start:end]); name != "" {
				m[name] = joinIDs[i]
			}
		}

		switch status {
		case tiledb.TILEDB_COMPLETED:
			r.featMap = m
			return nil
		case tiledb.TILEDB_INCOMPLETE:
		default:
			return fmt.Errorf("unexpected TileDB query status for var: %v", status)
		}
	}
}

func boundsMinMaxInt64(bounds interface{}) (int64, int64, error) {
	switch v := bounds.(type) {
	case []int64:
		if len(v) >= 2 {
			return v[0], v[1], nil
		}
	case []int32:
		if len(v) >= 2 {
			return int64(v[0]), int64(v[1]), nil
		}
	case []uint64:
		if len(v) >= 2 {
			if v[0] > math.MaxInt64 || v[1] > math.MaxInt64 {
				return 0, 0, fmt.Errorf("uint64 bounds exceed int64 range")
			}
			return int64(v[0]), int64(v[1]), nil
		}
	case []uint32:
		if len(v) >= 2 {
			return int64(v[0]), int64(v[1]), nil
		}
	}
	return 0, 0, fmt.Errorf("unsupported bounds type for non-empty domain")
}

func attributeNullable(arr *tiledb.Array, name string) (bool, error) {
	schema, err := arr.Schema()
	if err != nil {
		return false, err
	}
	defer schema.Free()
	attr, err := schema.AttributeFromName(name)
	if err != nil {
		return false, err
	}
	defer attr.Free()
	return attr.Nullable()
}
