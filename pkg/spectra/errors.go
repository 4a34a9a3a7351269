package spectra

import "errors"

var (
	// ErrSizeMismatch means the m/z and intensity arrays differ in length
	ErrSizeMismatch = errors.New("spectra: mismatched array size")
	// ErrEmptySpectrum means a query needs at least one peak
	ErrEmptySpectrum = errors.New("spectra: empty spectrum")
	// ErrInvalidRange means a range was built with minimum > maximum
	ErrInvalidRange = errors.New("spectra: minimum greater than maximum")
	// ErrTopNOutOfRange means more peaks were requested than the spectrum holds
	ErrTopNOutOfRange = errors.New("spectra: top-N peak count out of range")
	// ErrInvalidEncoding means a packed peak buffer could not be decoded
	ErrInvalidEncoding = errors.New("spectra: invalid peak encoding")
)
