package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/recorder"
)

// ErrRecording is returned by StartMovie while a recording is running.
var ErrRecording = errors.New("engine: movie already recording")

type screenshotResult struct {
	img *image.RGBA
	err error
}

func (c *canvasImpl) Screenshot(ctx context.Context) (*image.RGBA, error) {
	result := make(chan screenshotResult, 1)
	task := NewTask("screenshot", func() {
		defer func() {
			if r := recover(); r != nil {
				result <- screenshotResult{err: fmt.Errorf("screenshot: frame failed: %v", r)}
				panic(r)
			}
		}()
		c.draw()
		img, err := c.backend.ReadPixels(c.Rect())
		result <- screenshotResult{img: img, err: err}
	})
	if err := c.scheduler.EnqueueWait(ctx, task); err != nil {
		return nil, err
	}

	select {
	case res := <-result:
		if res.err != nil {
			return nil, fmt.Errorf("screenshot: %w", res.err)
		}
		return res.img, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.scheduler.Done():
		return nil, ErrClosed
	}
}

func (c *canvasImpl) SaveScreenshot(ctx context.Context, path string) <-chan error {
	done := make(chan error, 1)

	c.mu.Lock()
	c.nextJobID++
	id := c.nextJobID
	c.mu.Unlock()

	c.screenshotPool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			err := c.writeScreenshot(ctx, path)
			if err != nil {
				log.Printf("[Canvas] screenshot %s: %v", path, err)
			}
			done <- err
			return nil, err
		},
	})
	return done
}

func (c *canvasImpl) writeScreenshot(ctx context.Context, path string) error {
	img, err := c.Screenshot(ctx)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

func (c *canvasImpl) StartMovie(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.movie != nil {
		return ErrRecording
	}
	c.movie = recorder.NewMovieWriter(w, 0)
	return nil
}

func (c *canvasImpl) StopMovie() error {
	c.mu.Lock()
	movie := c.movie
	c.movie = nil
	c.mu.Unlock()
	if movie == nil {
		return nil
	}
	return movie.Close()
}

// captureMovieFrame reads back the frame just drawn and hands it to the
// active recording, if any. It runs on the render goroutine.
func (c *canvasImpl) captureMovieFrame(rect common.Rect, now time.Time) {
	c.mu.Lock()
	movie := c.movie
	c.mu.Unlock()
	if movie == nil || rect.Empty() {
		return
	}

	img, err := c.backend.ReadPixels(rect)
	if err != nil {
		log.Printf("[Canvas] movie frame: %v", err)
		return
	}
	if err := movie.Submit(img, now); err != nil {
		log.Printf("[Canvas] movie frame: %v", err)
	}
}
