package timemachine

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/triptych/tangle/peerid"
)

var (
	// ErrHistoryPruned is returned when a call arrives timestamped before
	// the earliest retained history entry — the exact failure mode the
	// coordinator's pruning-safety bookkeeping (spec.md §4.6 step 6,
	// testable property 3) exists to prevent.
	ErrHistoryPruned = errors.New("timemachine: call timestamp precedes pruned history")
	ErrUnknownFunction = errors.New("timemachine: unknown function index")
)

// Func is a registered exported function: it reads and mutates mem in
// place and may return result values (used by CallAndRevert).
type Func func(mem *Memory, args []float64) []float64

// Memory is a flat byte arena standing in for WASM linear memory.
type Memory struct {
	bytes []byte
}

// NewMemory returns a zeroed Memory of the given size.
func NewMemory(size int) *Memory {
	return &Memory{bytes: make([]byte, size)}
}

func (m *Memory) grow(n int) {
	if n <= len(m.bytes) {
		return
	}
	grown := make([]byte, n)
	copy(grown, m.bytes)
	m.bytes = grown
}

// ReadFloat64 reads a float64 at addr (little-endian, matching the wire format).
func (m *Memory) ReadFloat64(addr uint32) float64 {
	m.grow(int(addr) + 8)
	return bytesToFloat64(m.bytes[addr : addr+8])
}

// WriteFloat64 writes v at addr.
func (m *Memory) WriteFloat64(addr uint32, v float64) {
	m.grow(int(addr) + 8)
	float64ToBytes(m.bytes[addr:addr+8], v)
}

// Bytes returns a copy of the full memory arena.
func (m *Memory) Bytes() []byte {
	out := make([]byte, len(m.bytes))
	copy(out, m.bytes)
	return out
}

type appliedCall struct {
	TS   peerid.TimeStamp
	Index uint32
	Args []float64
}

type snapshotRecord struct {
	Time float64
	Mem  []byte
}

// Interpreter is a small deterministic reference Time Machine. It registers
// named functions up front, applies WasmCalls in strict (time, player_id)
// order regardless of arrival order, and always rebuilds memory by folding
// the full retained history from genesis rather than resuming from an
// intermediate snapshot. That sidesteps the "no snapshot available exactly
// at the rollback boundary" bug spec.md §9 flags in the source design —
// acceptable here because a real Time Machine's rollback efficiency is
// explicitly out of scope for the Tangle coordinator (spec.md §1).
type Interpreter struct {
	mu sync.Mutex

	names []string
	fns   []Func
	index map[string]uint32

	memSize int
	mem     *Memory

	history   []appliedCall
	snapshots []snapshotRecord

	targetTime   float64
	currentTime  float64
	prunedBefore float64

	fixedInterval *time.Duration
}

// NewInterpreter creates an Interpreter with the given linear-memory size.
// A nil fixedInterval puts the machine in variable-step mode.
func NewInterpreter(memSize int, fixedInterval *time.Duration) *Interpreter {
	return &Interpreter{
		index:         make(map[string]uint32),
		memSize:       memSize,
		mem:           NewMemory(memSize),
		fixedInterval: fixedInterval,
		prunedBefore:  math.Inf(-1),
	}
}

// Register adds an exported function, returning its assigned index.
func (it *Interpreter) Register(name string, fn Func) uint32 {
	it.mu.Lock()
	defer it.mu.Unlock()
	idx := uint32(len(it.fns))
	it.names = append(it.names, name)
	it.fns = append(it.fns, fn)
	it.index[name] = idx
	return idx
}

func (it *Interpreter) ResolveFunction(name string) (uint32, bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	idx, ok := it.index[name]
	return idx, ok
}

func (it *Interpreter) FunctionName(index uint32) (string, bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if int(index) >= len(it.names) {
		return "", false
	}
	return it.names[index], true
}

func (it *Interpreter) Execute(index uint32, args []float64, ts peerid.TimeStamp, _ bool) error {
	it.mu.Lock()
	defer it.mu.Unlock()

	if int(index) >= len(it.fns) {
		return fmt.Errorf("%w: %d", ErrUnknownFunction, index)
	}
	if ts.Time < it.prunedBefore {
		return ErrHistoryPruned
	}

	pos := sort.Search(len(it.history), func(i int) bool {
		return ts.Less(it.history[i].TS)
	})
	call := appliedCall{TS: ts, Index: index, Args: append([]float64(nil), args...)}
	it.history = append(it.history, appliedCall{})
	copy(it.history[pos+1:], it.history[pos:])
	it.history[pos] = call

	it.rebuildLocked()
	return nil
}

// rebuildLocked recomputes memory by replaying all retained history from a
// zeroed arena. Callers must hold it.mu.
func (it *Interpreter) rebuildLocked() {
	it.mem = NewMemory(it.memSize)
	for _, c := range it.history {
		it.fns[c.Index](it.mem, c.Args)
	}
}

func (it *Interpreter) CallAndRevert(index uint32, args []float64) ([]float64, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if int(index) >= len(it.fns) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFunction, index)
	}
	scratch := &Memory{bytes: append([]byte(nil), it.mem.bytes...)}
	return it.fns[index](scratch, args), nil
}

func (it *Interpreter) ProgressTime(deltaMS float64) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.targetTime += deltaMS
}

func (it *Interpreter) Step() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.currentTime >= it.targetTime {
		return false
	}
	if it.fixedInterval != nil {
		step := float64(it.fixedInterval.Milliseconds())
		if step <= 0 {
			step = 1
		}
		it.currentTime += step
		if it.currentTime > it.targetTime {
			it.currentTime = it.targetTime
		}
		return it.currentTime < it.targetTime
	}
	it.currentTime = it.targetTime
	return false
}

func (it *Interpreter) TakeSnapshot() {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.snapshots = append(it.snapshots, snapshotRecord{
		Time: it.currentTime,
		Mem:  it.mem.Bytes(),
	})
}

func (it *Interpreter) RemoveHistoryBefore(t float64) error {
	it.mu.Lock()
	defer it.mu.Unlock()

	kept := it.history[:0:0]
	for _, c := range it.history {
		if c.TS.Time >= t {
			kept = append(kept, c)
		}
	}
	it.history = kept

	keptSnaps := it.snapshots[:0:0]
	for _, s := range it.snapshots {
		if s.Time >= t {
			keptSnaps = append(keptSnaps, s)
		}
	}
	it.snapshots = keptSnaps
	if t > it.prunedBefore {
		it.prunedBefore = t
	}
	return nil
}

func (it *Interpreter) TargetTime() float64 {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.targetTime
}

func (it *Interpreter) CurrentSimulationTime() float64 {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.currentTime
}

func (it *Interpreter) FixedUpdateInterval() (time.Duration, bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.fixedInterval == nil {
		return 0, false
	}
	return *it.fixedInterval, true
}

// encodedState is the gob-serializable form of an Interpreter's heap.
type encodedState struct {
	History     []appliedCall
	TargetTime  float64
	CurrentTime float64
	MemSize     int
}

func (it *Interpreter) Encode() ([]byte, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	state := encodedState{
		History:     it.history,
		TargetTime:  it.targetTime,
		CurrentTime: it.currentTime,
		MemSize:     it.memSize,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, fmt.Errorf("timemachine: encode heap: %w", err)
	}
	return buf.Bytes(), nil
}

func (it *Interpreter) DecodeAndApply(data []byte) error {
	var state encodedState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return fmt.Errorf("timemachine: decode heap: %w", err)
	}
	it.mu.Lock()
	defer it.mu.Unlock()
	it.history = state.History
	it.targetTime = state.TargetTime
	it.currentTime = state.CurrentTime
	if state.MemSize > it.memSize {
		it.memSize = state.MemSize
	}
	it.snapshots = nil
	it.rebuildLocked()
	return nil
}

func (it *Interpreter) ReadMemory(addr, length uint32) ([]byte, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.mem.grow(int(addr) + int(length))
	out := make([]byte, length)
	copy(out, it.mem.bytes[addr:int(addr)+int(length)])
	return out, nil
}

func (it *Interpreter) ReadString(addr, length uint32) (string, error) {
	b, err := it.ReadMemory(addr, length)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(b, "\x00")), nil
}

func bytesToFloat64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func float64ToBytes(b []byte, v float64) {
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
}
