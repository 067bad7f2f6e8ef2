package cv

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
)

// Codec selects the on-disk format of the frame buffer
type Codec string

const (
	// CodecPNG stores the screencap bytes exactly as received
	CodecPNG Codec = "png"
	// CodecSnappy stores raw RGBA pixels compressed with snappy
	CodecSnappy Codec = "snappy"
)

// ParseCodec converts a config value into a Codec
func ParseCodec(s string) (Codec, error) {
	switch Codec(strings.ToLower(strings.TrimSpace(s))) {
	case "", CodecPNG:
		return CodecPNG, nil
	case CodecSnappy:
		return CodecSnappy, nil
	default:
		return "", fmt.Errorf("unknown frame codec %q", s)
	}
}

// snappyHeaderSize is width and height as little-endian uint32
const snappyHeaderSize = 8

// FrameStore is the single persisted frame buffer. Every Save overwrites it.
type FrameStore struct {
	path  string
	codec Codec
}

// NewFrameStore creates a frame store at path
func NewFrameStore(path string, codec Codec) *FrameStore {
	if codec == "" {
		codec = CodecPNG
	}
	return &FrameStore{path: path, codec: codec}
}

// Path returns the frame buffer location
func (fs *FrameStore) Path() string {
	return fs.path
}

// Save durably replaces the frame buffer with a PNG screencap. It returns
// only after the data has been synced and renamed into place.
func (fs *FrameStore) Save(pngData []byte) error {
	data := pngData
	if fs.codec == CodecSnappy {
		img, err := png.Decode(bytes.NewReader(pngData))
		if err != nil {
			return fmt.Errorf("failed to decode screencap: %w", err)
		}
		data = encodeSnappyFrame(ToRGBA(img))
	}
	return writeFileAtomic(fs.path, data)
}

// Load reads the frame buffer back as RGBA
func (fs *FrameStore) Load() (*image.RGBA, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame buffer: %w", err)
	}

	switch fs.codec {
	case CodecSnappy:
		return decodeSnappyFrame(data)
	default:
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode frame buffer: %w", err)
		}
		return ToRGBA(img), nil
	}
}

func encodeSnappyFrame(img *image.RGBA) []byte {
	b := img.Bounds()
	raw := make([]byte, snappyHeaderSize, snappyHeaderSize+len(img.Pix))
	binary.LittleEndian.PutUint32(raw[0:4], uint32(b.Dx()))
	binary.LittleEndian.PutUint32(raw[4:8], uint32(b.Dy()))
	raw = append(raw, img.Pix...)
	return snappy.Encode(nil, raw)
}

func decodeSnappyFrame(data []byte) (*image.RGBA, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress frame buffer: %w", err)
	}
	if len(raw) < snappyHeaderSize {
		return nil, fmt.Errorf("frame buffer too short: %d bytes", len(raw))
	}

	w := int(binary.LittleEndian.Uint32(raw[0:4]))
	h := int(binary.LittleEndian.Uint32(raw[4:8]))
	pix := raw[snappyHeaderSize:]
	if len(pix) != w*h*4 {
		return nil, fmt.Errorf("frame buffer size mismatch: %dx%d with %d bytes", w, h, len(pix))
	}

	return &image.RGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create frame directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp frame: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close frame: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace frame buffer: %w", err)
	}
	return nil
}
