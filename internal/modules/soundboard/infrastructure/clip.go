package infrastructure

import (
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// openClip opens a clip reference for reading. References are either local
// paths (./sounds/...) or HTTP URLs, mirroring the admin API's validation.
func openClip(clipReference string) (io.ReadCloser, error) {
	if strings.HasPrefix(clipReference, "http://") || strings.HasPrefix(clipReference, "https://") {
		resp, err := http.Get(clipReference)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch clip: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to fetch clip: status %d", resp.StatusCode)
		}
		return resp.Body, nil
	}

	f, err := os.Open(clipReference)
	if err != nil {
		return nil, fmt.Errorf("failed to open clip: %w", err)
	}
	return f, nil
}

// readOpusFrame reads one DCA-framed opus packet: a little-endian int16
// length prefix followed by that many bytes of opus data. io.EOF marks the
// clean end of the clip.
func readOpusFrame(r io.Reader) ([]byte, error) {
	var frameLen int16
	if err := binary.Read(r, binary.LittleEndian, &frameLen); err != nil {
		return nil, err
	}
	if frameLen <= 0 {
		return nil, fmt.Errorf("invalid opus frame length %d", frameLen)
	}

	frame := make([]byte, frameLen)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, err
	}
	return frame, nil
}
