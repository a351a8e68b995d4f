package wire

import (
	"encoding/binary"
	"math"
)

// EncodeWasmCall serializes a WasmCall datagram: kind byte, u32 function_index,
// f64 time, u8 arg_count, f64[arg_count] args, all little-endian.
func EncodeWasmCall(m WasmCall) ([]byte, error) {
	if len(m.Args) > MaxArgs {
		return nil, ErrTooManyArgs
	}
	buf := make([]byte, 1+4+8+1+8*len(m.Args))
	buf[0] = byte(KindWasmCall)
	binary.LittleEndian.PutUint32(buf[1:5], m.FunctionIndex)
	putFloat64(buf[5:13], m.Time)
	buf[13] = byte(len(m.Args))
	off := 14
	for _, a := range m.Args {
		putFloat64(buf[off:off+8], a)
		off += 8
	}
	return buf, nil
}

// EncodeTimeProgressed serializes a TimeProgressed datagram: kind byte, f64 time.
func EncodeTimeProgressed(m TimeProgressed) []byte {
	buf := make([]byte, 1+8)
	buf[0] = byte(KindTimeProgressed)
	putFloat64(buf[1:9], m.Time)
	return buf
}

// EncodeRequestState serializes a RequestState datagram: kind byte, empty payload.
func EncodeRequestState() []byte {
	return []byte{byte(KindRequestState)}
}

// EncodeSetProgram serializes a SetProgram datagram: kind byte, opaque bytes.
func EncodeSetProgram(m SetProgram) []byte {
	buf := make([]byte, 1+len(m.Binary))
	buf[0] = byte(KindSetProgram)
	copy(buf[1:], m.Binary)
	return buf
}

// EncodeSetHeap serializes a SetHeap datagram: kind byte, opaque state blob.
func EncodeSetHeap(m SetHeap) []byte {
	buf := make([]byte, 1+len(m.State))
	buf[0] = byte(KindSetHeap)
	copy(buf[1:], m.State)
	return buf
}

// EncodePing serializes a Ping datagram: kind byte, f64 wall-clock ms.
func EncodePing(m Ping) []byte {
	buf := make([]byte, 1+8)
	buf[0] = byte(KindPing)
	putFloat64(buf[1:9], m.SentAtMS)
	return buf
}

// EncodePong serializes a Pong datagram: kind byte, f64 original wall-clock ms.
func EncodePong(m Pong) []byte {
	buf := make([]byte, 1+8)
	buf[0] = byte(KindPong)
	putFloat64(buf[1:9], m.OriginalSentAtMS)
	return buf
}

// RewritePingToPong rewrites the kind byte of a received Ping datagram to Pong
// in place and returns it, echoing the embedded timestamp untouched. This
// matches spec.md §4.3: "Rewrite first byte to Pong in place; echo back."
func RewritePingToPong(datagram []byte) ([]byte, error) {
	if len(datagram) == 0 {
		return nil, ErrEmptyDatagram
	}
	if Kind(datagram[0]) != KindPing {
		return nil, ErrWrongKindRewrite
	}
	datagram[0] = byte(KindPong)
	return datagram, nil
}

func putFloat64(b []byte, v float64) {
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
}
