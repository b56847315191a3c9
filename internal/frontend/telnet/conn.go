package telnet

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// Telnet command and option bytes (RFC 854, RFC 858).
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250
	GA   byte = 249
	NOP  byte = 241
	SE   byte = 240

	OptEcho            byte = 1
	OptSuppressGoAhead byte = 3
	OptLinemode        byte = 34
)

// maxLineLength bounds a single input line; longer input is truncated.
const maxLineLength = 512

// Conn is a line-oriented Telnet connection. Command sequences are stripped
// from input and writes are serialised.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader

	mu           sync.Mutex
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConn wraps raw.
//
// Precondition: raw must be open.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, 4096),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Negotiate asks the client to suppress go-ahead.
func (c *Conn) Negotiate() error {
	return c.Write([]byte{IAC, WILL, OptSuppressGoAhead})
}

// ReadLine reads one line without its terminator. CR, LF, and CRLF all end a
// line; Telnet commands and control characters other than tab are dropped.
//
// Postcondition: On error the partial line read so far is returned with it.
func (c *Conn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}

	var line bytes.Buffer
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return line.String(), err
		}
		switch {
		case b == IAC:
			if _, _, err := skipCommand(c.reader); err != nil {
				return line.String(), err
			}
		case b == '\n':
			return line.String(), nil
		case b == '\r':
			if next, err := c.reader.Peek(1); err == nil && next[0] == '\n' {
				_, _ = c.reader.ReadByte()
			}
			return line.String(), nil
		case b < 32 && b != '\t':
		case line.Len() < maxLineLength:
			line.WriteByte(b)
		}
	}
}

// WriteLine writes text followed by CRLF. Embedded LF line breaks are
// converted to CRLF.
func (c *Conn) WriteLine(text string) error {
	return c.Write([]byte(crlf(text) + "\r\n"))
}

// WriteLines writes each line followed by CRLF in a single write.
func (c *Conn) WriteLines(lines ...string) error {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(crlf(l))
		b.WriteString("\r\n")
	}
	return c.Write([]byte(b.String()))
}

// WritePrompt writes prompt without a line terminator.
func (c *Conn) WritePrompt(prompt string) error {
	return c.Write([]byte(prompt))
}

// Write sends raw bytes under the write deadline.
func (c *Conn) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err := c.raw.Write(data)
	return err
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the client's network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

func crlf(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", "\r\n")
}

// skipCommand consumes the remainder of a command sequence whose leading IAC
// has already been read. An escaped IAC yields the literal byte.
func skipCommand(r io.ByteReader) (literal byte, ok bool, err error) {
	cmd, err := r.ReadByte()
	if err != nil {
		return 0, false, err
	}
	switch cmd {
	case WILL, WONT, DO, DONT:
		_, err = r.ReadByte()
		return 0, false, err
	case SB:
		for {
			b, err := r.ReadByte()
			if err != nil {
				return 0, false, err
			}
			if b != IAC {
				continue
			}
			next, err := r.ReadByte()
			if err != nil {
				return 0, false, err
			}
			if next == SE {
				return 0, false, nil
			}
		}
	case IAC:
		return IAC, true, nil
	default:
		return 0, false, nil
	}
}

// FilterIAC removes Telnet command sequences from input. An escaped IAC
// (IAC IAC) becomes a single 0xFF; a truncated trailing sequence is dropped.
//
// Postcondition: len(result) <= len(input).
func FilterIAC(input []byte) []byte {
	r := bytes.NewReader(input)
	out := make([]byte, 0, len(input))
	for {
		b, err := r.ReadByte()
		if err != nil {
			return out
		}
		if b != IAC {
			out = append(out, b)
			continue
		}
		literal, ok, err := skipCommand(r)
		if errors.Is(err, io.EOF) {
			return out
		}
		if ok {
			out = append(out, literal)
		}
	}
}
