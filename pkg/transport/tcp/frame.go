package tcp

import (
	"bytes"
	"io"

	"tarun-kavipurapu/lanshare/pkg/protocol"
)

// WriteHeader sends the transfer header in a single write.
func WriteHeader(w io.Writer, h protocol.TransferHeader) error {
	_, err := w.Write(protocol.EncodeHeader(h))
	return err
}

// ReadHeader performs one read of at most bufSize bytes and parses it as a
// transfer header. If the read contains a HeaderTerminator, everything after
// it is returned as the start of the body; otherwise the whole read is the
// header.
func ReadHeader(r io.Reader, bufSize int) (protocol.TransferHeader, []byte, error) {
	buf := make([]byte, bufSize)
	n, err := r.Read(buf)
	if n == 0 {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return protocol.TransferHeader{}, nil, err
	}

	raw := buf[:n]
	var body []byte
	if i := bytes.IndexByte(raw, protocol.HeaderTerminator); i >= 0 {
		raw, body = raw[:i], raw[i+1:]
	}

	h, perr := protocol.ParseHeader(raw)
	if perr != nil {
		return protocol.TransferHeader{}, nil, perr
	}
	return h, body, nil
}
