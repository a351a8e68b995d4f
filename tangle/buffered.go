package tangle

import "github.com/triptych/tangle/peerid"

// BufferedCall is a WasmCall received while the state is RequestingHeap;
// it accumulates in the order received and is drained in that same order
// once SetHeap is applied (spec §8 property 5).
type BufferedCall struct {
	FunctionIndex uint32
	TimeStamp     peerid.TimeStamp
	Args          []float64
}
