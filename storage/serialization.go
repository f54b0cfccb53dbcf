package storage

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MarshalVector serializes a vector as a little-endian length prefix
// followed by IEEE 754 float32 values.
func MarshalVector(v []float32) []byte {
	buf := make([]byte, 4+4*len(v))
	binary.LittleEndian.PutUint32(buf, uint32(len(v)))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4+4*i:], math.Float32bits(f))
	}
	return buf
}

// UnmarshalVector deserializes a vector written by MarshalVector.
func UnmarshalVector(data []byte) ([]float32, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: %w: vector header", ErrSerializationFailed, ErrTruncatedData)
	}
	n := int(binary.LittleEndian.Uint32(data))
	if len(data)-4 != 4*n {
		return nil, fmt.Errorf("%w: %w: want %d values, have %d bytes", ErrSerializationFailed, ErrTruncatedData, n, len(data)-4)
	}
	v := make([]float32, n)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4+4*i:]))
	}
	return v, nil
}
