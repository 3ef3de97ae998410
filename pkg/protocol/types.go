package protocol

import "errors"

// Wire tags. Both formats are colon-delimited UTF-8 text.
const (
	DiscoverTag = "DISCOVER"
	FileTag     = "FILE"

	Separator = ":"

	// HeaderTerminator ends the header written by this implementation, so a
	// zero-byte send puts FILE:<name>:0\n on the wire. Receivers that take the
	// whole first read as the header see the newline as part of the size
	// field and must trim it before parsing. Receivers here also accept a
	// header with no terminator.
	HeaderTerminator = '\n'
)

// Default ports for zero-config operation.
const (
	DefaultTransferPort  = 12345
	DefaultDiscoveryPort = 12346
	DefaultBufferSize    = 4096
)

var (
	ErrNotDiscover   = errors.New("not a discovery datagram")
	ErrNotFileHeader = errors.New("not a file header")
	ErrMalformed     = errors.New("malformed message")
	ErrUnsafeName    = errors.New("unsafe file name")
)

// Announcement is the payload of a discovery broadcast.
type Announcement struct {
	DisplayName string
	Address     string
}

// TransferHeader precedes the body of a file transfer.
type TransferHeader struct {
	FileName string
	FileSize uint64
}
