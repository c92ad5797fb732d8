//go:build !soma

package soma

import (
	"fmt"
	"os"
)

// Reader is a stub when built without "-tags soma".
type Reader struct {
	experimentURI string
}

// NewReader resolves and validates the experiment path so config issues
// surface early. All reads return ErrUnsupported.
func NewReader(somaPath string) (*Reader, error) {
	uri, err := ResolveExperimentURI(somaPath)
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(uri); statErr != nil {
		return nil, fmt.Errorf("soma experiment not found at %s: %w", uri, statErr)
	}
	return &Reader{experimentURI: uri}, nil
}

func (r *Reader) Supported() bool { return false }

func (r *Reader) ExperimentURI() string { return r.experimentURI }

func (r *Reader) FeatureJoinID(feature string) (int64, error) {
	return 0, ErrUnsupported
}

func (r *Reader) FeatureValues(feature string, obsJoinIDs []int64) (map[int64]float32, error) {
	return nil, ErrUnsupported
}

func (r *Reader) Close() {}
