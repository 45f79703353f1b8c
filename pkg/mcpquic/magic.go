package mcpquic

import (
	"bytes"
	"fmt"
	"io"
)

// ValidateMagicBytes reads the stream preamble and checks it is MagicBytesMCP.
func ValidateMagicBytes(r io.Reader) error {
	magic := make([]byte, len(MagicBytesMCP))
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("read magic bytes: %w", err)
	}
	if !bytes.Equal(magic, []byte(MagicBytesMCP)) {
		return fmt.Errorf("%w: got %q", ErrInvalidMagicBytes, string(magic))
	}
	return nil
}

// SendMagicBytes writes the preamble. Clients send it right after opening the stream.
func SendMagicBytes(w io.Writer) error {
	if _, err := w.Write([]byte(MagicBytesMCP)); err != nil {
		return fmt.Errorf("write magic bytes: %w", err)
	}
	return nil
}
