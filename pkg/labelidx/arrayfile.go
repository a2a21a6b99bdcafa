package labelidx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

const (
	// arrayMagic identifies labelidx u64 array files ("SCMX").
	arrayMagic uint32 = 0x53434d58
	// arrayVersion is the current array file version.
	arrayVersion uint32 = 1
	// arrayHeaderSize is magic(4) + version(4) + count(8).
	arrayHeaderSize = 16
)

var (
	// ErrInvalidArrayFile indicates a truncated or foreign array file.
	ErrInvalidArrayFile = errors.New("invalid index array file")
)

// writeU64Array writes values to path with a magic+version+count header.
func writeU64Array(path string, values []uint64) error {
	buf := make([]byte, arrayHeaderSize+8*len(values))
	binary.LittleEndian.PutUint32(buf[0:4], arrayMagic)
	binary.LittleEndian.PutUint32(buf[4:8], arrayVersion)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(values)))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[arrayHeaderSize+8*i:], v)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create array file: %w", err)
	}
	if _, err := f.Write(buf); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write array file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync array file: %w", err)
	}
	return f.Close()
}

// readU64Array reads an array file written by writeU64Array. Label sets are
// bounded, so the whole array is materialized.
func readU64Array(path string) ([]uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read array file: %w", err)
	}
	if len(data) < arrayHeaderSize {
		return nil, fmt.Errorf("%s: short header: %w", path, ErrInvalidArrayFile)
	}

	if binary.LittleEndian.Uint32(data[0:4]) != arrayMagic {
		return nil, fmt.Errorf("%s: magic mismatch: %w", path, ErrInvalidArrayFile)
	}
	if binary.LittleEndian.Uint32(data[4:8]) != arrayVersion {
		return nil, fmt.Errorf("%s: unsupported version: %w", path, ErrInvalidArrayFile)
	}
	count := binary.LittleEndian.Uint64(data[8:16])
	if uint64(len(data)-arrayHeaderSize) != count*8 {
		return nil, fmt.Errorf("%s: size mismatch: %w", path, ErrInvalidArrayFile)
	}

	values := make([]uint64, count)
	for i := range values {
		values[i] = binary.LittleEndian.Uint64(data[arrayHeaderSize+8*i:])
	}
	return values, nil
}
