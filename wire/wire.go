// Package wire implements the Tangle binary wire protocol: one kind byte
// followed by a little-endian payload, for each of the seven message kinds
// exchanged between peers in a room.
package wire

// Kind identifies the payload shape of a wire message.
type Kind byte

const (
	KindWasmCall       Kind = 0
	KindTimeProgressed Kind = 1
	KindRequestState   Kind = 2
	KindSetProgram     Kind = 3
	KindSetHeap        Kind = 4
	KindPing           Kind = 5
	KindPong           Kind = 6
)

func (k Kind) String() string {
	switch k {
	case KindWasmCall:
		return "WasmCall"
	case KindTimeProgressed:
		return "TimeProgressed"
	case KindRequestState:
		return "RequestState"
	case KindSetProgram:
		return "SetProgram"
	case KindSetHeap:
		return "SetHeap"
	case KindPing:
		return "Ping"
	case KindPong:
		return "Pong"
	default:
		return "Unknown"
	}
}

// MaxArgs bounds the arg_count byte in a WasmCall payload.
const MaxArgs = 255

// WasmCall is kind 0: u32 function_index, f64 time, u8 arg_count, f64[arg_count] args.
type WasmCall struct {
	FunctionIndex uint32
	Time          float64
	Args          []float64
}

// TimeProgressed is kind 1: f64 time.
type TimeProgressed struct {
	Time float64
}

// RequestState is kind 2: empty payload.
type RequestState struct{}

// SetProgram is kind 3: opaque module bytes. Reserved: it encodes and
// decodes here, but the tangle coordinator does not act on it.
type SetProgram struct {
	Binary []byte
}

// SetHeap is kind 4: opaque Time-Machine-encoded state blob.
type SetHeap struct {
	State []byte
}

// Ping is kind 5: f64 wall_clock_ms_at_send.
type Ping struct {
	SentAtMS float64
}

// Pong is kind 6: f64 wall_clock_ms_at_original_send, copied through untouched.
type Pong struct {
	OriginalSentAtMS float64
}
