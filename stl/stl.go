// Package stl serializes triangle meshes to the binary STL format,
// either into an in-memory buffer or streamed to a file.
package stl

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
)

const (
	headerSize = 80
	recordSize = 50 // 12 normal + 36 vertex + 2 attribute bytes
	bufSize    = 10000

	headerTag = "LithoStream binary STL"
)

// Tri represents a binary STL triangle record.
type Tri struct {
	// Normal plus three vertex triplets: [3]float32{x,y,z}.
	// Normals may be zero; consumers recompute them from winding.
	N, V1, V2, V3 [3]float32
	_             uint16 // unused attribute byte count
}

// Marshal serializes the triangle list as a complete binary STL buffer:
// an 80-byte header, a little-endian uint32 triangle count, and one
// 50-byte record per triangle. The result is always 84 + 50*len(tris)
// bytes. An empty triangle list yields a valid (degenerate) file.
func Marshal(tris []Tri) ([]byte, error) {
	if uint64(len(tris)) > math.MaxUint32 {
		return nil, fmt.Errorf("too many triangles for STL: %v", len(tris))
	}

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+4+recordSize*len(tris)))

	var header [headerSize]byte
	copy(header[:], headerTag)
	buf.Write(header[:])

	if err := binary.Write(buf, binary.LittleEndian, uint32(len(tris))); err != nil {
		return nil, fmt.Errorf("write count: %v", err)
	}
	for i := range tris {
		if err := binary.Write(buf, binary.LittleEndian, &tris[i]); err != nil {
			return nil, fmt.Errorf("write triangle %v: %v", i, err)
		}
	}

	return buf.Bytes(), nil
}

// Client is a streaming binary STL file writer. Triangles are buffered
// through a channel and written by a background goroutine; the triangle
// count is patched into the header on Close.
type Client struct {
	wg sync.WaitGroup // ensures file is closed
	ch chan Tri

	mu  sync.RWMutex
	err error
}

// New creates a streaming binary STL writer backed by the named file.
func New(filename string) (*Client, error) {
	out, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	header := struct {
		H [headerSize]uint8
		_ uint32 // count is overwritten on channel close.
	}{}
	copy(header.H[:], headerTag)
	if err := binary.Write(out, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("error writing header: %v", err)
	}

	c := &Client{
		ch: make(chan Tri, bufSize),
	}
	c.start(out)
	return c, nil
}

func (c *Client) start(out writeSeekCloser) {
	c.wg.Add(1)
	go func() {
		err := writer(out, c.ch)
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		c.wg.Done()
	}()
}

// Write writes a triangle to the STL file.
func (c *Client) Write(t *Tri) error {
	c.ch <- *t
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Close finalizes the STL file.
func (c *Client) Close() error {
	close(c.ch)
	c.wg.Wait()
	return c.err
}

type writeSeekCloser interface {
	io.Writer
	io.Seeker
	io.Closer
}

func writer(out writeSeekCloser, ch <-chan Tri) error {
	var count uint32
	for t := range ch {
		if err := binary.Write(out, binary.LittleEndian, &t); err != nil {
			return fmt.Errorf("write triangle %#v: %v", t, err)
		}
		count++
	}

	if _, err := out.Seek(headerSize, io.SeekStart); err != nil {
		return fmt.Errorf("seek: %v", err)
	}

	if err := binary.Write(out, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("write count %v: %v", count, err)
	}

	return out.Close()
}
