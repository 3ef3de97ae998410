package protocol

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// EncodeHeader renders FILE:<name>:<size> followed by HeaderTerminator.
func EncodeHeader(h TransferHeader) []byte {
	s := FileTag + Separator + h.FileName + Separator + strconv.FormatUint(h.FileSize, 10)
	return append([]byte(s), HeaderTerminator)
}

// ParseHeader parses FILE:<name>:<size>. The name ends at the second colon and
// the size is the decimal remainder; surrounding whitespace (including the
// terminator) is ignored. The name must pass CheckName.
func ParseHeader(b []byte) (TransferHeader, error) {
	s := string(b)
	if !strings.HasPrefix(s, FileTag+Separator) {
		return TransferHeader{}, ErrNotFileHeader
	}

	parts := strings.SplitN(s, Separator, 3)
	if len(parts) != 3 {
		return TransferHeader{}, fmt.Errorf("%w: missing size in file header", ErrMalformed)
	}

	size, err := strconv.ParseUint(strings.TrimSpace(parts[2]), 10, 64)
	if err != nil {
		return TransferHeader{}, fmt.Errorf("%w: bad file size %q", ErrMalformed, parts[2])
	}

	name := parts[1]
	if err := CheckName(name); err != nil {
		return TransferHeader{}, err
	}

	return TransferHeader{FileName: name, FileSize: size}, nil
}

// CheckName accepts only a bare file name: no separators of either platform,
// no drive or root, no "." or "..", and no colon since the header could not
// carry it.
func CheckName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrUnsafeName, name)
	case strings.ContainsAny(name, `/\`), strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains a path separator", ErrUnsafeName, name)
	case strings.Contains(name, Separator):
		return fmt.Errorf("%w: %q contains %q", ErrUnsafeName, name, Separator)
	case filepath.IsAbs(name), filepath.VolumeName(name) != "":
		return fmt.Errorf("%w: %q is absolute", ErrUnsafeName, name)
	}
	return nil
}
