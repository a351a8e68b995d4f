package main

import "github.com/triptych/tangle/timemachine"

// newDemoMachine builds the toy deterministic module `tanglectl simulate`
// and `tanglectl serve` drive: a single exported function, "tick", that
// increments a float64 counter held at memory address 0. It exists only
// to give the demo commands something to call; real embedders supply
// their own timemachine.Machine.
func newDemoMachine(memSize int) *timemachine.Interpreter {
	m := timemachine.NewInterpreter(memSize, nil)
	m.Register("tick", func(mem *timemachine.Memory, args []float64) []float64 {
		mem.WriteFloat64(0, mem.ReadFloat64(0)+1)
		return nil
	})
	m.Register("peer_left", func(mem *timemachine.Memory, args []float64) []float64 {
		mem.WriteFloat64(8, args[0])
		return nil
	})
	return m
}
