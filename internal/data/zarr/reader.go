// Package zarr reads spatial dataset bundles stored as Zarr v3 arrays.
//
// A bundle is a directory holding metadata.json, the feature matrix X as a
// float32 [n_obs, n_features] array, one array per observation column under
// obs/, and optional GeoJSON annotation layers.
package zarr

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/atlasmap-sc/spatialplot/internal/dataset"
)

// DefaultColumnCacheSize is the number of decoded matrix columns kept per reader.
const DefaultColumnCacheSize = 256

// Reader provides access to a dataset bundle.
type Reader struct {
	basePath string
	metadata *Metadata
	decoder  *zstd.Decoder

	mu      sync.Mutex
	xMeta   *ZarrV3ArrayMeta
	columns *lru.Cache[int, []float64]
}

// Metadata describes a bundle (metadata.json).
type Metadata struct {
	FormatVersion string            `json:"format_version"`
	DatasetName   string            `json:"dataset_name"`
	NObs          int               `json:"n_obs"`
	ObsNames      []string          `json:"obs_names"`
	Features      []string          `json:"features"`
	ObsColumns    []ObsColumn       `json:"obs_columns"`
	Spatial       SpatialInfo       `json:"spatial"`
	Annotations   map[string]string `json:"annotations,omitempty"`
}

// ObsColumn describes one observation column array.
type ObsColumn struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"` // "numeric" or "categorical"
	Categories []string `json:"categories,omitempty"`
}

// SpatialInfo names the coordinate columns and the spot size.
type SpatialInfo struct {
	XColumn      string  `json:"x"`
	YColumn      string  `json:"y"`
	SpotDiameter float64 `json:"spot_diameter"`
}

// ZarrV3ArrayMeta represents Zarr v3 array metadata (zarr.json).
type ZarrV3ArrayMeta struct {
	Shape     []int  `json:"shape"`
	DataType  string `json:"data_type"`
	ChunkGrid struct {
		Name          string `json:"name"`
		Configuration struct {
			ChunkShape []int `json:"chunk_shape"`
		} `json:"configuration"`
	} `json:"chunk_grid"`
	ChunkKeyEncoding struct {
		Name          string `json:"name"`
		Configuration struct {
			Separator string `json:"separator"`
		} `json:"configuration"`
	} `json:"chunk_key_encoding"`
	FillValue interface{} `json:"fill_value"`
	Codecs    []struct {
		Name          string                 `json:"name"`
		Configuration map[string]interface{} `json:"configuration"`
	} `json:"codecs"`
	ZarrFormat int    `json:"zarr_format"`
	NodeType   string `json:"node_type"`
}

// Open opens the bundle at basePath and loads its metadata.
func Open(basePath string) (*Reader, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	columns, err := lru.New[int, []float64](DefaultColumnCacheSize)
	if err != nil {
		decoder.Close()
		return nil, fmt.Errorf("failed to create column cache: %w", err)
	}

	r := &Reader{
		basePath: basePath,
		decoder:  decoder,
		columns:  columns,
	}
	if err := r.loadMetadata(); err != nil {
		decoder.Close()
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}
	return r, nil
}

// Metadata returns the bundle metadata.
func (r *Reader) Metadata() *Metadata {
	return r.metadata
}

func (r *Reader) loadMetadata() error {
	data, err := os.ReadFile(filepath.Join(r.basePath, "metadata.json"))
	if err != nil {
		return fmt.Errorf("failed to read metadata.json: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return fmt.Errorf("failed to parse metadata.json: %w", err)
	}
	if metadata.NObs == 0 {
		metadata.NObs = len(metadata.ObsNames)
	}
	if len(metadata.ObsNames) != metadata.NObs {
		return fmt.Errorf("metadata lists %d obs_names for n_obs=%d", len(metadata.ObsNames), metadata.NObs)
	}

	r.metadata = &metadata
	return nil
}

// Dataset loads the observation table and annotations and returns a dataset
// whose matrix reads X lazily through the reader.
func (r *Reader) Dataset() (*dataset.Dataset, error) {
	obs, err := r.loadObs()
	if err != nil {
		return nil, err
	}
	ds, err := dataset.New(obs, dataset.NewFeatureTable(r.metadata.Features), &Matrix{r: r})
	if err != nil {
		return nil, err
	}
	if len(r.metadata.Annotations) > 0 {
		geoms, err := r.loadAnnotations()
		if err != nil {
			return nil, err
		}
		ds.Spatial.Geom = geoms
	}
	return ds, nil
}

func (r *Reader) loadObs() (*dataset.ObsTable, error) {
	obs := dataset.NewObsTable(r.metadata.ObsNames)
	for _, c := range r.metadata.ObsColumns {
		arrayPath := filepath.Join(r.basePath, "obs", c.Name)
		meta, err := r.loadArrayMeta(arrayPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load obs/%s metadata: %w", c.Name, err)
		}

		col := &dataset.Column{Name: c.Name}
		switch c.Kind {
		case "categorical":
			codes, err := r.readVector(arrayPath, meta, "int32")
			if err != nil {
				return nil, fmt.Errorf("obs/%s: %w", c.Name, err)
			}
			col.Kind = dataset.Categorical
			col.Categories = c.Categories
			col.Codes = make([]int, len(codes))
			for i, v := range codes {
				col.Codes[i] = int(v)
			}
		case "numeric", "":
			values, err := r.readVector(arrayPath, meta, "float32")
			if err != nil {
				return nil, fmt.Errorf("obs/%s: %w", c.Name, err)
			}
			col.Kind = dataset.Numeric
			col.Values = values
		default:
			return nil, fmt.Errorf("obs/%s: unsupported column kind %q", c.Name, c.Kind)
		}
		if err := obs.Set(col); err != nil {
			return nil, err
		}
	}
	return obs, nil
}

// readVector decodes a 1-D array of the expected dtype into float64.
func (r *Reader) readVector(arrayPath string, meta *ZarrV3ArrayMeta, dtype string) ([]float64, error) {
	if meta.DataType != dtype {
		return nil, fmt.Errorf("unexpected data_type %s, want %s", meta.DataType, dtype)
	}
	if len(meta.Shape) != 1 || len(meta.ChunkGrid.Configuration.ChunkShape) != 1 {
		return nil, fmt.Errorf("unexpected shape %v (chunks %v)", meta.Shape, meta.ChunkGrid.Configuration.ChunkShape)
	}

	n := meta.Shape[0]
	chunkLen := meta.ChunkGrid.Configuration.ChunkShape[0]
	out := make([]float64, n)
	for chunk := 0; chunk < ceilDiv(n, chunkLen); chunk++ {
		start := chunk * chunkLen
		length := min(chunkLen, n-start)

		data, err := r.readChunkAt(arrayPath, meta, []int{chunk})
		if err != nil {
			return nil, fmt.Errorf("failed to load chunk %d: %w", chunk, err)
		}
		if len(data) < length*4 {
			return nil, fmt.Errorf("chunk %d too short: got %d bytes, expected %d", chunk, len(data), length*4)
		}
		for i := 0; i < length; i++ {
			out[start+i] = decodeElement(data[i*4:], dtype)
		}
	}
	return out, nil
}

func (r *Reader) loadAnnotations() (map[string]orb.Geometry, error) {
	out := make(map[string]orb.Geometry, len(r.metadata.Annotations))
	for name, rel := range r.metadata.Annotations {
		data, err := os.ReadFile(filepath.Join(r.basePath, rel))
		if err != nil {
			return nil, fmt.Errorf("failed to read annotation %s: %w", name, err)
		}
		g, err := decodeAnnotation(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse annotation %s: %w", name, err)
		}
		out[name] = g
	}
	return out, nil
}

// decodeAnnotation accepts a FeatureCollection, a single Feature or a bare
// geometry. Several geometries are combined into one collection.
func decodeAnnotation(data []byte) (orb.Geometry, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, err
		}
		if len(fc.Features) == 1 {
			return fc.Features[0].Geometry, nil
		}
		coll := make(orb.Collection, 0, len(fc.Features))
		for _, f := range fc.Features {
			coll = append(coll, f.Geometry)
		}
		return coll, nil
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, err
		}
		return f.Geometry, nil
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, err
		}
		return g.Geometry(), nil
	}
}

// loadArrayMeta loads Zarr v3 array metadata.
func (r *Reader) loadArrayMeta(arrayPath string) (*ZarrV3ArrayMeta, error) {
	data, err := os.ReadFile(filepath.Join(arrayPath, "zarr.json"))
	if err != nil {
		return nil, err
	}

	var meta ZarrV3ArrayMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// readChunk reads and decompresses a chunk from Zarr v3 format.
func (r *Reader) readChunk(arrayPath string, chunkKey string) ([]byte, error) {
	compressed, err := os.ReadFile(filepath.Join(arrayPath, "c", chunkKey))
	if err != nil {
		return nil, err
	}

	decompressed, err := r.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress failed: %w", err)
	}
	return decompressed, nil
}

func encodeChunkKey(meta *ZarrV3ArrayMeta, chunkIndices []int) string {
	sep := meta.ChunkKeyEncoding.Configuration.Separator
	if sep == "" {
		sep = "/"
	}
	parts := make([]string, len(chunkIndices))
	for i, idx := range chunkIndices {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, sep)
}

// checkChunkIndex validates chunkIndices against the array's chunk grid.
func checkChunkIndex(meta *ZarrV3ArrayMeta, chunkIndices []int) error {
	chunkShape := meta.ChunkGrid.Configuration.ChunkShape
	if len(meta.Shape) == 0 || len(chunkShape) == 0 {
		return fmt.Errorf("invalid zarr metadata: missing shape/chunk_shape")
	}
	if len(meta.Shape) != len(chunkShape) {
		return fmt.Errorf("invalid zarr metadata: shape dims (%d) != chunk dims (%d)", len(meta.Shape), len(chunkShape))
	}
	if len(chunkIndices) != len(meta.Shape) {
		return fmt.Errorf("invalid chunk indices: got %d dims, expected %d", len(chunkIndices), len(meta.Shape))
	}

	for d := range meta.Shape {
		chunkLen := chunkShape[d]
		if chunkLen <= 0 {
			return fmt.Errorf("invalid chunk shape at dim %d: %d", d, chunkLen)
		}
		start := chunkIndices[d] * chunkLen
		if start < 0 || start >= meta.Shape[d] {
			return fmt.Errorf("chunk index out of range at dim %d: start=%d shape=%d", d, start, meta.Shape[d])
		}
	}
	return nil
}

// fillElement returns the little-endian bytes of the array's fill value.
func fillElement(meta *ZarrV3ArrayMeta) ([]byte, error) {
	out := make([]byte, 4)
	var f float64
	switch t := meta.FillValue.(type) {
	case nil:
		return out, nil
	case float64:
		f = t
	case string:
		// Zarr v3 spells non-finite fills as strings.
		switch t {
		case "NaN":
			f = math.NaN()
		case "Infinity":
			f = math.Inf(1)
		case "-Infinity":
			f = math.Inf(-1)
		default:
			return nil, fmt.Errorf("unsupported fill_value %q", t)
		}
	default:
		return nil, fmt.Errorf("unsupported fill_value type: %T", meta.FillValue)
	}

	switch meta.DataType {
	case "float32":
		binary.LittleEndian.PutUint32(out, math.Float32bits(float32(f)))
	case "int32":
		binary.LittleEndian.PutUint32(out, uint32(int32(f)))
	default:
		return nil, fmt.Errorf("unsupported zarr data_type: %s", meta.DataType)
	}
	return out, nil
}

func repeatFill(fill []byte, n int) []byte {
	out := make([]byte, len(fill)*n)
	zero := true
	for _, b := range fill {
		if b != 0 {
			zero = false
			break
		}
	}
	if zero {
		return out
	}
	for i := 0; i < n; i++ {
		copy(out[i*len(fill):], fill)
	}
	return out
}

func (r *Reader) readChunkAt(arrayPath string, meta *ZarrV3ArrayMeta, chunkIndices []int) ([]byte, error) {
	data, err := r.readChunk(arrayPath, encodeChunkKey(meta, chunkIndices))
	if err == nil {
		return data, nil
	}

	// A chunk missing on disk holds only the fill value, at the full chunk
	// shape like any stored edge chunk.
	if os.IsNotExist(err) {
		if idxErr := checkChunkIndex(meta, chunkIndices); idxErr != nil {
			return nil, idxErr
		}
		fill, fillErr := fillElement(meta)
		if fillErr != nil {
			return nil, fillErr
		}
		return repeatFill(fill, product(meta.ChunkGrid.Configuration.ChunkShape)), nil
	}
	return nil, err
}

func decodeElement(b []byte, dtype string) float64 {
	u := binary.LittleEndian.Uint32(b)
	if dtype == "int32" {
		return float64(int32(u))
	}
	return float64(math.Float32frombits(u))
}

// Close releases resources.
func (r *Reader) Close() {
	if r.decoder != nil {
		r.decoder.Close()
	}
}

func product(ints []int) int {
	p := 1
	for _, v := range ints {
		p *= v
	}
	return p
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
