package raster

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"golang.org/x/image/draw"
)

// DefaultFaviconSizes are the frames embedded in public/favicon.ico.
var DefaultFaviconSizes = []int{48, 32, 16}

type icoDirEntry struct {
	Width      uint8
	Height     uint8
	ColorCount uint8
	Reserved   uint8
	Planes     uint16
	BitCount   uint16
	BytesInRes uint32
	Offset     uint32
}

// EncodeICO writes a Windows icon whose frames are PNG-compressed copies of
// src scaled to each size.
func EncodeICO(w io.Writer, src image.Image, sizes []int) error {
	if len(sizes) == 0 {
		return errors.New("ico needs at least one frame size")
	}
	frames := make([][]byte, 0, len(sizes))
	for _, size := range sizes {
		if size <= 0 || size > 256 {
			return fmt.Errorf("ico frame size %d out of range", size)
		}
		var buf bytes.Buffer
		if err := Encode(&buf, scaleFrame(src, size)); err != nil {
			return err
		}
		frames = append(frames, buf.Bytes())
	}

	// ICONDIR: reserved, type (1 = icon), count
	header := []uint16{0, 1, uint16(len(frames))}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}

	offset := uint32(6 + 16*len(frames))
	for i, size := range sizes {
		dim := uint8(size)
		if size >= 256 {
			dim = 0 // 0 means 256
		}
		entry := icoDirEntry{
			Width:      dim,
			Height:     dim,
			Planes:     1,
			BitCount:   32,
			BytesInRes: uint32(len(frames[i])),
			Offset:     offset,
		}
		if err := binary.Write(w, binary.LittleEndian, entry); err != nil {
			return err
		}
		offset += uint32(len(frames[i]))
	}
	for _, frame := range frames {
		if _, err := w.Write(frame); err != nil {
			return err
		}
	}
	return nil
}

// WriteICO encodes src into an icon file at path.
func WriteICO(path string, src image.Image, sizes []int) error {
	var buf bytes.Buffer
	if err := EncodeICO(&buf, src, sizes); err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func scaleFrame(src image.Image, size int) *image.NRGBA {
	b := src.Bounds()
	if b.Dx() == size && b.Dy() == size {
		return ToNRGBA(src)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
