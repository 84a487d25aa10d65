package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderSize 固定头部：uint16 类型 + uint16 长度（小端）
	HeaderSize = 4
	// MaxPayloadSize 负载长度上限（uint16）
	MaxPayloadSize = 65535
)

// MessageType 消息类型，数值属于线上协议的一部分，不可重新编号
type MessageType uint16

const (
	MsgPing      MessageType = 1
	MsgPong      MessageType = 2
	MsgGameState MessageType = 3
	MsgStartGame MessageType = 4
	MsgStopGame  MessageType = 5
)

func (t MessageType) String() string {
	switch t {
	case MsgPing:
		return "PING"
	case MsgPong:
		return "PONG"
	case MsgGameState:
		return "GAME_STATE"
	case MsgStartGame:
		return "START_GAME"
	case MsgStopGame:
		return "STOP_GAME"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint16(t))
	}
}

// Envelope 二进制信封：头部 + 恰好 Length 字节的负载
type Envelope struct {
	Type    MessageType
	Length  uint16
	Payload []byte
}

var (
	ErrFrameTooShort   = errors.New("frame too short")
	ErrLengthMismatch  = errors.New("declared length exceeds frame")
	ErrPayloadTooLarge = errors.New("payload too large")
)

// ProtocolError 编解码错误，可用 errors.Is 匹配上面的哨兵错误
type ProtocolError struct {
	Kind     error
	Got      int // 实际字节数
	Declared int // 头部声明的长度（仅 LengthMismatch）
}

func (e *ProtocolError) Error() string {
	switch e.Kind {
	case ErrLengthMismatch:
		return fmt.Sprintf("protocol: %v: declared %d, available %d", e.Kind, e.Declared, e.Got)
	default:
		return fmt.Sprintf("protocol: %v (%d bytes)", e.Kind, e.Got)
	}
}

func (e *ProtocolError) Unwrap() error { return e.Kind }

// Encode 写出 4 字节头部与负载
func Encode(t MessageType, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, &ProtocolError{Kind: ErrPayloadTooLarge, Got: len(payload)}
	}
	buf := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(t))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(payload)))
	copy(buf[HeaderSize:], payload)
	return buf, nil
}

// Decode 解析一帧。头部之后多余的字节被忽略；返回的负载是拷贝，不引用 frame
func Decode(frame []byte) (Envelope, error) {
	if len(frame) < HeaderSize {
		return Envelope{}, &ProtocolError{Kind: ErrFrameTooShort, Got: len(frame)}
	}
	t := binary.LittleEndian.Uint16(frame[0:2])
	n := binary.LittleEndian.Uint16(frame[2:4])
	avail := len(frame) - HeaderSize
	if int(n) > avail {
		return Envelope{}, &ProtocolError{Kind: ErrLengthMismatch, Got: avail, Declared: int(n)}
	}
	payload := make([]byte, n)
	copy(payload, frame[HeaderSize:HeaderSize+int(n)])
	return Envelope{Type: MessageType(t), Length: n, Payload: payload}, nil
}

// MustEncode 仅用于固定的小负载（如空 PING/PONG）
func MustEncode(t MessageType, payload []byte) []byte {
	b, err := Encode(t, payload)
	if err != nil {
		panic(err)
	}
	return b
}
