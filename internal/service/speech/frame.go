package speech

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
)

// Volcengine binary websocket framing. A frame is a 4 byte header, optional
// sequence and event metadata, a 4 byte payload size and the payload.

const protocolVersion = 0b0001

// MessageType is the high nibble of the second header byte.
type MessageType uint8

const (
	FullClientRequest       MessageType = 0b0001
	FullServerResponse      MessageType = 0b1001
	AudioOnlyServerResponse MessageType = 0b1011
	ErrorMessage            MessageType = 0b1111
)

// MessageFlags is the low nibble of the second header byte.
type MessageFlags uint8

const (
	NoSequenceNumber       MessageFlags = 0b0000
	PositiveSequenceNumber MessageFlags = 0b0001
	LastPacketNoSequence   MessageFlags = 0b0010
	NegativeSequenceNumber MessageFlags = 0b0011
	WithEvent              MessageFlags = 0b0100
)

// EventType tags frames sent with the WithEvent flag.
type EventType int32

const (
	EventTypeStartConnection    EventType = 1
	EventTypeFinishConnection   EventType = 2
	EventTypeConnectionStarted  EventType = 50
	EventTypeConnectionFailed   EventType = 51
	EventTypeConnectionFinished EventType = 52
	EventTypeSessionStarted     EventType = 150
	EventTypeSessionFinished    EventType = 152
	EventTypeSessionFailed      EventType = 153
)

// Serialization is the high nibble of the third header byte.
type Serialization uint8

const (
	NoSerialization   Serialization = 0b0000
	JSONSerialization Serialization = 0b0001
)

// Compression is the low nibble of the third header byte.
type Compression uint8

const (
	NoCompression   Compression = 0b0000
	GzipCompression Compression = 0b0001
)

// Header is the fixed part of every frame.
type Header struct {
	HeaderSize    uint8 // in 4 byte words
	MessageType   MessageType
	Flags         MessageFlags
	Serialization Serialization
	Compression   Compression
}

// Frame is one decoded message.
type Frame struct {
	Header    Header
	Sequence  int32
	Event     EventType
	SessionID string
	ConnectID string
	ErrorCode uint32
	Payload   []byte
}

// Last reports whether the frame closes the stream by its sequence flags.
func (f *Frame) Last() bool {
	switch f.Header.Flags & 0b0011 {
	case LastPacketNoSequence, NegativeSequenceNumber:
		return true
	}
	return f.Sequence < 0
}

func (f *Frame) hasEvent() bool {
	return f.Header.Flags&WithEvent == WithEvent
}

// NewClientRequest frames a JSON request payload.
func NewClientRequest(payload []byte, compression Compression) *Frame {
	return &Frame{
		Header: Header{
			HeaderSize:    1,
			MessageType:   FullClientRequest,
			Flags:         NoSequenceNumber,
			Serialization: JSONSerialization,
			Compression:   compression,
		},
		Payload: payload,
	}
}

// Encode serialises f.
func (f *Frame) Encode() []byte {
	h := f.Header
	if h.HeaderSize == 0 {
		h.HeaderSize = 1
	}

	var buf bytes.Buffer
	buf.Write([]byte{
		protocolVersion<<4 | h.HeaderSize&0x0F,
		uint8(h.MessageType)<<4 | uint8(h.Flags),
		uint8(h.Serialization)<<4 | uint8(h.Compression),
		0,
	})
	for i := 1; i < int(h.HeaderSize); i++ {
		buf.Write([]byte{0, 0, 0, 0})
	}

	switch h.Flags & 0b0011 {
	case PositiveSequenceNumber, NegativeSequenceNumber:
		_ = binary.Write(&buf, binary.BigEndian, f.Sequence)
	}

	if f.hasEvent() {
		_ = binary.Write(&buf, binary.BigEndian, int32(f.Event))
		if !eventSkipsSessionID(f.Event) {
			writeSized(&buf, f.SessionID)
		}
		if eventHasConnectID(f.Event) {
			writeSized(&buf, f.ConnectID)
		}
	}

	if h.MessageType == ErrorMessage {
		_ = binary.Write(&buf, binary.BigEndian, f.ErrorCode)
	}
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(f.Payload)))
	buf.Write(f.Payload)
	return buf.Bytes()
}

func writeSized(buf *bytes.Buffer, s string) {
	_ = binary.Write(buf, binary.BigEndian, uint32(len(s)))
	buf.WriteString(s)
}

// DecodeFrame parses one frame from r.
func DecodeFrame(r io.Reader) (*Frame, error) {
	raw := make([]byte, 4)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if version := raw[0] >> 4; version != protocolVersion {
		return nil, fmt.Errorf("unsupported protocol version: %d", version)
	}

	f := &Frame{Header: Header{
		HeaderSize:    raw[0] & 0x0F,
		MessageType:   MessageType(raw[1] >> 4),
		Flags:         MessageFlags(raw[1] & 0x0F),
		Serialization: Serialization(raw[2] >> 4),
		Compression:   Compression(raw[2] & 0x0F),
	}}

	if extra := int(f.Header.HeaderSize)*4 - 4; extra > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(extra)); err != nil {
			return nil, fmt.Errorf("failed to read extended header: %w", err)
		}
	}

	switch f.Header.Flags & 0b0011 {
	case PositiveSequenceNumber, NegativeSequenceNumber:
		if err := binary.Read(r, binary.BigEndian, &f.Sequence); err != nil {
			return nil, fmt.Errorf("failed to read sequence: %w", err)
		}
	}

	if f.hasEvent() {
		var event int32
		if err := binary.Read(r, binary.BigEndian, &event); err != nil {
			return nil, fmt.Errorf("failed to read event type: %w", err)
		}
		f.Event = EventType(event)

		var err error
		if !eventSkipsSessionID(f.Event) {
			if f.SessionID, err = readSized(r); err != nil {
				return nil, fmt.Errorf("failed to read session id: %w", err)
			}
		}
		if eventHasConnectID(f.Event) {
			if f.ConnectID, err = readSized(r); err != nil {
				return nil, fmt.Errorf("failed to read connect id: %w", err)
			}
		}
	}

	if f.Header.MessageType == ErrorMessage {
		if err := binary.Read(r, binary.BigEndian, &f.ErrorCode); err != nil {
			return nil, fmt.Errorf("failed to read error code: %w", err)
		}
	}

	var size uint32
	if err := binary.Read(r, binary.BigEndian, &size); err != nil {
		return nil, fmt.Errorf("failed to read payload size: %w", err)
	}
	if size > 0 {
		f.Payload = make([]byte, size)
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			return nil, fmt.Errorf("failed to read payload (expected %d bytes): %w", size, err)
		}
	}
	return f, nil
}

func readSized(r io.Reader) (string, error) {
	var size uint32
	if err := binary.Read(r, binary.BigEndian, &size); err != nil {
		return "", err
	}
	if size == 0 {
		return "", nil
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return "", err
	}
	return string(data), nil
}

func eventSkipsSessionID(event EventType) bool {
	switch event {
	case EventTypeStartConnection, EventTypeFinishConnection,
		EventTypeConnectionStarted, EventTypeConnectionFailed,
		EventTypeConnectionFinished:
		return true
	}
	return false
}

func eventHasConnectID(event EventType) bool {
	switch event {
	case EventTypeConnectionStarted, EventTypeConnectionFailed, EventTypeConnectionFinished:
		return true
	}
	return false
}

// Body returns the frame payload with compression removed.
func (f *Frame) Body() ([]byte, error) {
	switch f.Header.Compression {
	case NoCompression:
		return f.Payload, nil
	case GzipCompression:
		zr, err := gzip.NewReader(bytes.NewReader(f.Payload))
		if err != nil {
			return nil, fmt.Errorf("gzip reader creation failed: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return nil, fmt.Errorf("unsupported compression method: %d", f.Header.Compression)
	}
}

// Gzip compresses data for a GzipCompression frame.
func Gzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, fmt.Errorf("gzip write failed: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close failed: %w", err)
	}
	return buf.Bytes(), nil
}
