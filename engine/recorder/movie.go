// Package recorder streams rendered frames to a movie file.
//
// Each frame is written as a comment line carrying the frame time followed by
// a binary PPM image:
//
//	# mtime=<unix milliseconds>
//	P6
//	<width> <height>
//	255
//	<RGB rows, top row first, bottom row last>
package recorder

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"sync"
	"time"
)

// ErrClosed is returned when a frame is submitted after Close.
var ErrClosed = errors.New("recorder: movie writer closed")

// ErrBacklog is returned when the writer goroutine has fallen too far behind.
var ErrBacklog = errors.New("recorder: frame backlog full")

const defaultBacklog = 8

type frame struct {
	img  *image.RGBA
	time time.Time
}

// MovieWriter encodes frames on its own goroutine so the render goroutine only
// hands off pixels. Frames are written in submission order.
type MovieWriter struct {
	mu     *sync.Mutex
	out    *bufio.Writer
	frames chan frame
	done   chan struct{}
	closed bool
	err    error
	count  int
}

// NewMovieWriter starts a writer goroutine encoding frames into w.
//
// Parameters:
//   - w: the destination stream; it is not closed by the writer
//   - backlog: maximum frames waiting to be encoded; <= 0 uses the default
//
// Returns:
//   - *MovieWriter: the running writer
func NewMovieWriter(w io.Writer, backlog int) *MovieWriter {
	if backlog <= 0 {
		backlog = defaultBacklog
	}
	m := &MovieWriter{
		mu:     &sync.Mutex{},
		out:    bufio.NewWriter(w),
		frames: make(chan frame, backlog),
		done:   make(chan struct{}),
	}
	go m.handleFrames()
	return m
}

// Submit queues a frame. The image must not be modified afterwards.
//
// Parameters:
//   - img: the frame pixels, row 0 at the top
//   - t: the frame time
//
// Returns:
//   - error: ErrBacklog if the writer is behind, ErrClosed after Close, or the
//     first write error
func (m *MovieWriter) Submit(img *image.RGBA, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.err != nil {
		return m.err
	}
	select {
	case m.frames <- frame{img: img, time: t}:
		return nil
	default:
		return ErrBacklog
	}
}

// Frames returns the number of frames written so far.
func (m *MovieWriter) Frames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Close waits for queued frames to be written and flushes the stream.
//
// Returns:
//   - error: the first write error, if any
func (m *MovieWriter) Close() error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.frames)
	}
	m.mu.Unlock()

	<-m.done
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *MovieWriter) handleFrames() {
	defer close(m.done)
	for f := range m.frames {
		m.mu.Lock()
		failed := m.err != nil
		m.mu.Unlock()
		if failed {
			continue
		}

		err := WriteFrame(m.out, f.img, f.time)
		m.mu.Lock()
		if err != nil {
			log.Printf("[Recorder] frame %d: %v", m.count, err)
			m.err = err
		} else {
			m.count++
		}
		m.mu.Unlock()
	}
	if err := m.out.Flush(); err != nil {
		m.mu.Lock()
		if m.err == nil {
			m.err = fmt.Errorf("recorder: flush: %w", err)
		}
		m.mu.Unlock()
	}
}

// WriteFrame writes one frame record to w.
//
// Parameters:
//   - w: the destination
//   - img: the pixels, row 0 at the top
//   - t: the frame time
//
// Returns:
//   - error: error if writing fails
func WriteFrame(w io.Writer, img *image.RGBA, t time.Time) error {
	b := img.Bounds()
	if _, err := fmt.Fprintf(w, "# mtime=%d\nP6\n%d %d\n255\n", t.UnixMilli(), b.Dx(), b.Dy()); err != nil {
		return fmt.Errorf("recorder: header: %w", err)
	}
	row := make([]byte, 3*b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			copy(row[3*x:3*x+3], src[4*x:4*x+3])
		}
		if _, err := w.Write(row); err != nil {
			return fmt.Errorf("recorder: row %d: %w", y-b.Min.Y, err)
		}
	}
	return nil
}
