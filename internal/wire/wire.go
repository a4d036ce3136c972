package wire

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the number of bytes before the payload.
const HeaderSize = 9

// MessageKind tags the payload of a frame.
type MessageKind uint8

const (
	EntryRequest   MessageKind = 0
	ControlRequest MessageKind = 1
)

func (k MessageKind) String() string {
	switch k {
	case EntryRequest:
		return "EntryRequest"
	case ControlRequest:
		return "ControlRequest"
	default:
		return fmt.Sprintf("MessageKind(%d)", uint8(k))
	}
}

// EntryType classifies a queued item.
type EntryType uint8

const (
	YoutubeMedia EntryType = 0
	FileStream   EntryType = 1
	LocalMedia   EntryType = 2
	Command      EntryType = 3
)

var entryTypeNames = map[EntryType]string{
	YoutubeMedia: "YoutubeMedia",
	FileStream:   "FileStream",
	LocalMedia:   "LocalMedia",
	Command:      "Command",
}

func (t EntryType) String() string {
	if name, ok := entryTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("EntryType(%d)", uint8(t))
}

// ParseEntryType maps the textual form used in the queue file back to an EntryType.
func ParseEntryType(name string) (EntryType, error) {
	for t, n := range entryTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown entry type %q", name)
}

// ControlCommand is a playback or queue control operation.
type ControlCommand uint8

const (
	ClearQueue      ControlCommand = 0
	StopPlayback    ControlCommand = 1
	PausePlayback   ControlCommand = 2
	StartPlayback   ControlCommand = 3
	SkipAndPlay     ControlCommand = 4
	RemoveFromQueue ControlCommand = 5
	PromoteEntry    ControlCommand = 6
)

func (c ControlCommand) String() string {
	switch c {
	case ClearQueue:
		return "ClearQueue"
	case StopPlayback:
		return "StopPlayback"
	case PausePlayback:
		return "PausePlayback"
	case StartPlayback:
		return "StartPlayback"
	case SkipAndPlay:
		return "SkipAndPlay"
	case RemoveFromQueue:
		return "RemoveFromQueue"
	case PromoteEntry:
		return "PromoteEntry"
	default:
		return fmt.Sprintf("ControlCommand(%d)", uint8(c))
	}
}

// TakesID reports whether the command carries a queue entry id.
func (c ControlCommand) TakesID() bool {
	return c == RemoveFromQueue || c == PromoteEntry
}

// Message is a decoded frame.
type Message struct {
	Kind     MessageKind
	Priority uint64
	Payload  []byte
}

// Encode lays out priority, kind and payload as a single frame.
func Encode(kind MessageKind, priority uint64, payload []byte) []byte {
	frame := make([]byte, HeaderSize, HeaderSize+len(payload))
	binary.LittleEndian.PutUint64(frame[:8], priority)
	frame[8] = byte(kind)
	return append(frame, payload...)
}

// Bytes encodes the message.
func (m Message) Bytes() []byte {
	return Encode(m.Kind, m.Priority, m.Payload)
}

// Decode parses a complete frame. The payload aliases frame.
func Decode(frame []byte) (Message, error) {
	if len(frame) < HeaderSize {
		return Message{}, &DecodeError{Reason: fmt.Sprintf("frame is %d bytes, need at least %d", len(frame), HeaderSize)}
	}
	kind := MessageKind(frame[8])
	if kind != EntryRequest && kind != ControlRequest {
		return Message{}, &DecodeError{Reason: fmt.Sprintf("unknown message kind %d", frame[8])}
	}
	return Message{
		Kind:     kind,
		Priority: binary.LittleEndian.Uint64(frame[:8]),
		Payload:  frame[HeaderSize:],
	}, nil
}

// EntryPayload builds the payload of an EntryRequest.
func EntryPayload(t EntryType, location string) []byte {
	payload := make([]byte, 0, 1+len(location))
	payload = append(payload, byte(t))
	return append(payload, location...)
}

// ControlPayload builds the payload of a ControlRequest. id is ignored for
// commands that do not take one.
func ControlPayload(c ControlCommand, id uint64) []byte {
	if !c.TakesID() {
		return []byte{byte(c)}
	}
	payload := make([]byte, 9)
	payload[0] = byte(c)
	binary.LittleEndian.PutUint64(payload[1:], id)
	return payload
}

// ParseEntryPayload splits an EntryRequest payload into type and location.
func ParseEntryPayload(payload []byte) (EntryType, string, error) {
	if len(payload) == 0 {
		return 0, "", &DecodeError{Reason: "empty entry payload"}
	}
	t := EntryType(payload[0])
	if _, ok := entryTypeNames[t]; !ok {
		return 0, "", &DecodeError{Reason: fmt.Sprintf("unknown entry type %d", payload[0])}
	}
	return t, string(payload[1:]), nil
}

// ParseControlPayload splits a ControlRequest payload into command and id.
func ParseControlPayload(payload []byte) (ControlCommand, uint64, error) {
	if len(payload) == 0 {
		return 0, 0, &DecodeError{Reason: "empty control payload"}
	}
	c := ControlCommand(payload[0])
	if c > PromoteEntry {
		return 0, 0, &DecodeError{Reason: fmt.Sprintf("unknown control command %d", payload[0])}
	}
	if !c.TakesID() {
		return c, 0, nil
	}
	if len(payload) < 9 {
		return 0, 0, &DecodeError{Reason: fmt.Sprintf("%s payload is %d bytes, need 9", c, len(payload))}
	}
	return c, binary.LittleEndian.Uint64(payload[1:9]), nil
}

// DecodeError reports a frame that does not follow the layout.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "decode frame: " + e.Reason
}
