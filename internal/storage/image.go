package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

var (
	ErrTooLarge     = errors.New("file too large")
	ErrInvalidImage = errors.New("invalid image")
	ErrUnsupported  = errors.New("unsupported image type")
)

const IconContentType = "image/jpeg"

// IconOptions bounds what an uploaded group icon may be and how it is stored.
type IconOptions struct {
	MaxBytes int64
	MaxDim   int
	Quality  int
	// Square crops the centre of the image before scaling.
	Square bool
	// Background fills transparent areas, JPEG has no alpha.
	Background color.Color
}

func DefaultIconOptions() IconOptions {
	return IconOptions{
		MaxBytes:   5 * 1024 * 1024,
		MaxDim:     512,
		Quality:    85,
		Square:     true,
		Background: color.White,
	}
}

func (o IconOptions) withDefaults() IconOptions {
	d := DefaultIconOptions()
	if o.MaxBytes <= 0 {
		o.MaxBytes = d.MaxBytes
	}
	if o.MaxDim <= 0 {
		o.MaxDim = d.MaxDim
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = d.Quality
	}
	if o.Background == nil {
		o.Background = d.Background
	}
	return o
}

// Icon is a processed upload ready to be stored.
type Icon struct {
	Data        []byte
	ContentType string
}

func (i *Icon) Size() int64 { return int64(len(i.Data)) }

type decodeFunc func(io.Reader) (image.Image, error)

var signatures = []struct {
	offset int
	magic  []byte
	decode decodeFunc
}{
	{0, []byte{0xFF, 0xD8, 0xFF}, jpeg.Decode},
	{0, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}, png.Decode},
	{8, []byte("WEBP"), webp.Decode},
}

// sniff picks a decoder from the file signature. WebP also needs the RIFF
// container header.
func sniff(header []byte) (decodeFunc, error) {
	if len(header) < 12 {
		return nil, ErrInvalidImage
	}
	for _, sig := range signatures {
		if !bytes.HasPrefix(header[sig.offset:], sig.magic) {
			continue
		}
		if sig.offset == 8 && !bytes.HasPrefix(header, []byte("RIFF")) {
			continue
		}
		return sig.decode, nil
	}
	return nil, ErrUnsupported
}

// ProcessIcon decodes a JPEG, PNG or WebP upload and re-encodes it as a
// JPEG no larger than MaxDim on either side. Small images are not upscaled.
func ProcessIcon(r io.Reader, opts IconOptions) (*Icon, error) {
	opts = opts.withDefaults()

	data, err := io.ReadAll(io.LimitReader(r, opts.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > opts.MaxBytes {
		return nil, ErrTooLarge
	}

	decode, err := sniff(data)
	if err != nil {
		return nil, err
	}
	src, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	crop := src.Bounds()
	if crop.Empty() {
		return nil, ErrInvalidImage
	}
	if opts.Square {
		crop = centerSquare(crop)
	}

	dst := image.NewRGBA(fitWithin(crop.Dx(), crop.Dy(), opts.MaxDim))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return &Icon{Data: out.Bytes(), ContentType: IconContentType}, nil
}

// fitWithin scales w x h down to fit a max x max box, keeping the aspect ratio.
func fitWithin(w, h, max int) image.Rectangle {
	if w <= max && h <= max {
		return image.Rect(0, 0, w, h)
	}
	if w >= h {
		return image.Rect(0, 0, max, atLeastOne(h*max/w))
	}
	return image.Rect(0, 0, atLeastOne(w*max/h), max)
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func centerSquare(r image.Rectangle) image.Rectangle {
	w, h := r.Dx(), r.Dy()
	switch {
	case w > h:
		x0 := r.Min.X + (w-h)/2
		return image.Rect(x0, r.Min.Y, x0+h, r.Max.Y)
	case h > w:
		y0 := r.Min.Y + (h-w)/2
		return image.Rect(r.Min.X, y0, r.Max.X, y0+w)
	default:
		return r
	}
}
