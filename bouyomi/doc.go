// Package bouyomi is a client for a locally running BouyomiChan-compatible text-to-speech
// application.
//
// # Overview
//
// The application is a separate desktop program. This package never synthesises audio; it
// asks the application to speak lines of text and to pause, resume, skip or clear its own
// playback queue, and it reads back simple status values.
//
// Two transports are supported:
//
//   - Client: the binary socket protocol (default 127.0.0.1:50001)
//   - HTTPClient: the HTTP endpoint (default 127.0.0.1:50080)
//
// # Socket Protocol
//
// All integers are little-endian. A control command is a single int16 opcode:
//
//	Talk          0x0001
//	Pause         0x0010
//	Resume        0x0020
//	Skip          0x0030
//	Clear         0x0040
//	GetPause      0x0110
//	GetNowPlaying 0x0120
//	GetTaskCount  0x0130
//
// The three Get commands are answered with a uint32. Pause, Resume, Skip and Clear are sent
// without reading a reply.
//
// A talk message is:
//
//	int16  opcode (1)
//	int16  speed   (50-300, -1 keeps the current setting)
//	int16  tone    (50-200, -1 keeps the current setting)
//	int16  volume  (0-100,  -1 keeps the current setting)
//	int16  voice   (0 default, 1-8 built-in, >= 10001 external engine)
//	uint8  text encoding (0 = UTF-8)
//	uint32 text length in bytes
//	[]byte text
//
// # Talking
//
// Talker queues requests from any goroutine and delivers them one at a time:
//
//	client := bouyomi.NewClient("", bouyomi.WithDefaultTimeout(3*time.Second))
//	talker := bouyomi.NewTalker(ctx, client)
//
//	talker.Talk(bouyomi.NewTalkRequest("hello"))
//	talker.Talk(bouyomi.NewTalkRequest("world", bouyomi.WithVoice(bouyomi.VoiceFemale1)))
//
// Talk never blocks. If a send fails the application is treated as not running and every
// line still waiting is discarded rather than retried.
//
// # Control Commands
//
// Control commands bypass the queue and run on the caller's goroutine:
//
//	n, err := client.GetTaskCount(ctx, bouyomi.WithTimeout(time.Second))
//	if errors.Is(err, bouyomi.ErrUnavailable) {
//		// application not running
//	}
//
// # Error Handling
//
// Connection failures, timeouts and short or undecodable replies all match ErrUnavailable.
// Short or undecodable replies additionally match ErrMalformedResponse. Nothing in this
// package panics on a transport failure.
package bouyomi
