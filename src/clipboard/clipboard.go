package clipboard

import (
	"errors"
	"fmt"
	"log"
	"sync"

	xclipboard "golang.design/x/clipboard"
)

// Format identifies a clipboard data representation.
type Format int

const (
	// FormatImage is PNG-encoded image data, the only representation this
	// application ever publishes.
	FormatImage Format = iota
	// FormatText exists so format negotiation has something to refuse.
	FormatText
)

func (f Format) String() string {
	switch f {
	case FormatImage:
		return "image"
	case FormatText:
		return "text"
	}
	return "unknown"
}

var (
	// ErrUnsupportedFormat is returned when content is asked for a
	// representation it did not offer.
	ErrUnsupportedFormat = errors.New("unsupported clipboard format")
	// ErrUnavailable is returned when the platform clipboard could not be
	// initialized.
	ErrUnavailable = errors.New("clipboard unavailable")
)

// Content is the capability contract for clipboard transfers: what
// representations can you provide, and provide representation X. Anything
// outside Formats() must be refused with ErrUnsupportedFormat.
type Content interface {
	Formats() []Format
	Provide(f Format) ([]byte, error)
}

// ImageContent offers a captured image as its single representation. The
// byte slice is the PNG buffer owned by the capture; it is never mutated.
type ImageContent struct {
	PNG []byte
}

func (c ImageContent) Formats() []Format { return []Format{FormatImage} }

func (c ImageContent) Provide(f Format) ([]byte, error) {
	if f != FormatImage {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	return c.PNG, nil
}

var (
	writeMu sync.Mutex
	ready   bool
)

// Init prepares the platform clipboard. Must be called once before Publish.
func Init() error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if err := xclipboard.Init(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	ready = true
	return nil
}

// Publish negotiates a representation with content and places it on the
// system clipboard as a one-shot replace. Only FormatImage is accepted by
// this publisher. The returned channel closes when clipboard ownership is
// lost; nothing needs releasing on that signal since the buffer is otherwise
// unshared. The write is mutex-guarded to keep parallel publishes from
// corrupting each other.
func Publish(content Content) (<-chan struct{}, error) {
	writeMu.Lock()
	defer writeMu.Unlock()
	if !ready {
		return nil, ErrUnavailable
	}

	for _, f := range content.Formats() {
		if f != FormatImage {
			continue
		}
		data, err := content.Provide(f)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, errors.New("empty image data")
		}
		lost := xclipboard.Write(xclipboard.FmtImage, data)
		log.Printf("clipboard: published %d bytes of image data", len(data))
		return lost, nil
	}
	return nil, fmt.Errorf("%w: content offers no image representation", ErrUnsupportedFormat)
}
