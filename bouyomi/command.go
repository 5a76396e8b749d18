package bouyomi

import (
	"encoding/binary"
	"fmt"
)

// Command is the opcode that leads every socket message.
type Command int16

const (
	CommandTalk          Command = 0x0001
	CommandPause         Command = 0x0010
	CommandResume        Command = 0x0020
	CommandSkip          Command = 0x0030
	CommandClear         Command = 0x0040
	CommandGetPause      Command = 0x0110
	CommandGetNowPlaying Command = 0x0120
	CommandGetTaskCount  Command = 0x0130
)

// textEncodingUTF8 is the only text encoding this package emits.
const textEncodingUTF8 byte = 0

// talkHeaderLen is opcode + speed + tone + volume + voice + encoding + length.
const talkHeaderLen = 2*5 + 1 + 4

// replyLen is the size of the integer returned by query commands.
const replyLen = 4

func (c Command) String() string {
	switch c {
	case CommandTalk:
		return "talk"
	case CommandPause:
		return "pause"
	case CommandResume:
		return "resume"
	case CommandSkip:
		return "skip"
	case CommandClear:
		return "clear"
	case CommandGetPause:
		return "getpause"
	case CommandGetNowPlaying:
		return "getnowplaying"
	case CommandGetTaskCount:
		return "gettalktaskcount"
	default:
		return fmt.Sprintf("command(0x%04x)", uint16(c))
	}
}

// ExpectsReply reports whether the application answers c with a 4-byte integer.
func (c Command) ExpectsReply() bool {
	switch c {
	case CommandGetPause, CommandGetNowPlaying, CommandGetTaskCount:
		return true
	default:
		return false
	}
}

// EncodeCommand returns the 2-byte message for a control command.
func EncodeCommand(c Command) []byte {
	return binary.LittleEndian.AppendUint16(make([]byte, 0, 2), uint16(c))
}

// EncodeTalk returns the talk message for req. Text is sent as-is; the remote application
// enforces its own length limit. Numeric fields are truncated to int16 without range
// checks, so callers should run req.Validate first.
func EncodeTalk(req TalkRequest) []byte {
	text := []byte(req.Text)
	buf := make([]byte, 0, talkHeaderLen+len(text))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(CommandTalk))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(int16(req.Speed)))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(int16(req.Tone)))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(int16(req.Volume)))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(int16(req.Voice)))
	buf = append(buf, textEncodingUTF8)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(text)))
	return append(buf, text...)
}

// decodeReply reads the little-endian unsigned integer answer of a query command.
func decodeReply(b [replyLen]byte) uint32 {
	return binary.LittleEndian.Uint32(b[:])
}
