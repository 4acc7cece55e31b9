// Package wire frames control-socket messages: one JSON document per line,
// passed through a crypto.Box so that a token-protected socket carries the
// sealed form on the same framing.
package wire

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"go.klb.dev/clipq/internal/crypto"
)

const (
	// MaxMessageSize is the largest message we will read (16 MiB).
	MaxMessageSize = 16 * 1024 * 1024

	writeDeadline = 5 * time.Second
)

// ErrTooLarge is returned for a line longer than MaxMessageSize.
var ErrTooLarge = errors.New("wire: message too large")

// Conn exchanges messages over one connection.
type Conn struct {
	conn net.Conn
	br   *bufio.Reader
	box  *crypto.Box
}

// New wraps conn. A nil box sends plain JSON.
func New(conn net.Conn, box *crypto.Box) *Conn {
	return &Conn{
		conn: conn,
		br:   bufio.NewReaderSize(conn, 64*1024),
		box:  box,
	}
}

// SetReadDeadline sets or clears the read deadline.
func (c *Conn) SetReadDeadline(d time.Duration) {
	if d == 0 {
		_ = c.conn.SetReadDeadline(time.Time{})
	} else {
		_ = c.conn.SetReadDeadline(time.Now().Add(d))
	}
}

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.conn.Close() }

// WriteMsg writes v as one line.
func (c *Conn) WriteMsg(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	line, err := c.box.Seal(raw)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	if len(line) >= MaxMessageSize {
		return fmt.Errorf("%w (%d bytes)", ErrTooLarge, len(line))
	}
	line = append(line, '\n')

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	_, err = c.conn.Write(line)
	_ = c.conn.SetWriteDeadline(time.Time{})
	return err
}

// ReadMsg reads the next line into v.
func (c *Conn) ReadMsg(v any) error {
	line, err := c.readLine()
	if err != nil {
		return err
	}
	raw, err := c.box.Open(line)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// readLine returns the next line without its newline, refusing to buffer
// more than MaxMessageSize bytes.
func (c *Conn) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := c.br.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > MaxMessageSize {
			return nil, fmt.Errorf("%w (%d+ bytes)", ErrTooLarge, len(line))
		}
		switch {
		case err == nil:
			return line[:len(line)-1], nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return nil, err
		}
	}
}
