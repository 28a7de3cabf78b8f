package profiles

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/DonovanMods/instance-launcher/internal/domain"
)

// IndexKey is the backend key holding the list of profile directories
const IndexKey = "profiles"

// EncodeIndex serializes profile paths as a big-endian uint32 count followed
// by one big-endian uint32 byte length and the UTF-8 bytes per path.
func EncodeIndex(paths []string) ([]byte, error) {
	size := 4
	for _, p := range paths {
		if !utf8.ValidString(p) {
			return nil, fmt.Errorf("%w: path is not valid UTF-8: %q", domain.ErrSerialization, p)
		}
		size += 4 + len(p)
	}

	buf := make([]byte, 0, size)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(paths)))
	for _, p := range paths {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(p)))
		buf = append(buf, p...)
	}
	return buf, nil
}

// DecodeIndex parses a payload written by EncodeIndex.
// Truncated payloads, trailing bytes and invalid UTF-8 are rejected.
func DecodeIndex(data []byte) ([]string, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: index truncated: %d bytes", domain.ErrSerialization, len(data))
	}
	count := binary.BigEndian.Uint32(data)
	data = data[4:]

	// Every entry needs at least its length prefix
	if uint64(count)*4 > uint64(len(data)) {
		return nil, fmt.Errorf("%w: index declares %d entries in %d bytes", domain.ErrSerialization, count, len(data))
	}

	paths := make([]string, 0, count)
	for i := range count {
		if len(data) < 4 {
			return nil, fmt.Errorf("%w: index entry %d truncated", domain.ErrSerialization, i)
		}
		n := binary.BigEndian.Uint32(data)
		data = data[4:]
		if uint64(n) > uint64(len(data)) {
			return nil, fmt.Errorf("%w: index entry %d truncated", domain.ErrSerialization, i)
		}
		p := data[:n]
		if !utf8.Valid(p) {
			return nil, fmt.Errorf("%w: index entry %d is not valid UTF-8", domain.ErrSerialization, i)
		}
		paths = append(paths, string(p))
		data = data[n:]
	}

	if len(data) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after index", domain.ErrSerialization, len(data))
	}
	return paths, nil
}
