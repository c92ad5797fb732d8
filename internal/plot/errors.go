package plot

import "errors"

var (
	// ErrInvalidInput indicates a malformed request, such as a feature list
	// that is neither a string nor a list of strings.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownFeature indicates a feature found neither in the observation
	// table nor in the feature index.
	ErrUnknownFeature = errors.New("unknown feature")
	// ErrTooManyPanels indicates more than MaxPanels features were requested.
	ErrTooManyPanels = errors.New("too many features to plot")
	// ErrTooManyColumns indicates a column count above MaxColumns.
	ErrTooManyColumns = errors.New("too many columns for subplots")
	// ErrMissingGeometry indicates the dataset has no usable observation
	// geometry or annotation registry.
	ErrMissingGeometry = errors.New("missing geometry")
	// ErrUnknownAnnotation indicates an annotation layer absent from the registry.
	ErrUnknownAnnotation = errors.New("unknown annotation")
	// ErrMisalignedExtraction indicates an extracted column that does not
	// line up with the selected observations.
	ErrMisalignedExtraction = errors.New("misaligned extraction")
)
