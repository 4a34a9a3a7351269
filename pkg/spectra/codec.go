package spectra

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/gzip"
)

const float64Size = 8

// ToBytes packs the spectrum as all m/z values followed by all intensities,
// each a little-endian float64. When compressed is set the buffer is gzipped.
func (s *Spectrum) ToBytes(compressed bool) ([]byte, error) {
	n := len(s.masses)
	buf := make([]byte, 2*n*float64Size)
	encodeFloat64s(buf[:n*float64Size], s.masses)
	encodeFloat64s(buf[n*float64Size:], s.intensities)

	if !compressed {
		return buf, nil
	}
	return compress(buf)
}

// ToBase64String is ToBytes encoded with standard base64.
func (s *Spectrum) ToBase64String(compressed bool) (string, error) {
	b, err := s.ToBytes(compressed)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// FromBytes decodes a buffer produced by ToBytes. Gzip input is detected by
// its magic number.
func FromBytes(data []byte) (*Spectrum, error) {
	if IsCompressed(data) {
		var err error
		data, err = decompress(data)
		if err != nil {
			return nil, err
		}
	}
	if len(data)%(2*float64Size) != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of peaks", ErrInvalidEncoding, len(data))
	}

	n := len(data) / (2 * float64Size)
	size := n * float64Size
	return &Spectrum{
		masses:      decodeFloat64s(data[:size]),
		intensities: decodeFloat64s(data[size:]),
	}, nil
}

// FromBase64String decodes a string produced by ToBase64String.
func FromBase64String(s string) (*Spectrum, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return FromBytes(data)
}

// IsCompressed reports whether data starts with the gzip magic number.
func IsCompressed(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1F && data[1] == 0x8B
}

func encodeFloat64s(dst []byte, values []float64) {
	for i, v := range values {
		binary.LittleEndian.PutUint64(dst[i*float64Size:], math.Float64bits(v))
	}
}

func decodeFloat64s(src []byte) []float64 {
	values := make([]float64, len(src)/float64Size)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(src[i*float64Size:]))
	}
	return values
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress peaks: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress peaks: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return out, nil
}
