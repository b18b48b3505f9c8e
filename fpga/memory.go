package fpga

import (
	"sort"
	"sync"

	"github.com/jbrzusto/surfmap/buffer"
)

// Memory is a sparse register file implementing Bus.  Registers never
// written read as zero.  Every access is appended to Log.
type Memory struct {
	Log *buffer.Ring

	mu    sync.Mutex
	words map[uint64]uint64
}

// NewMemory returns an empty register file whose log holds logSize
// transactions (see buffer.NewRing).
func NewMemory(logSize int) *Memory {
	return &Memory{
		Log:   buffer.NewRing(logSize),
		words: make(map[uint64]uint64),
	}
}

func (m *Memory) Read(addr uint64, bits uint) (uint64, error) {
	m.mu.Lock()
	v := m.words[addr] & wordMask(bits)
	m.mu.Unlock()
	m.Log.Add(buffer.Txn{Addr: addr, Bits: bits, Value: v})
	return v, nil
}

func (m *Memory) Write(addr uint64, bits uint, v uint64) error {
	v &= wordMask(bits)
	m.mu.Lock()
	m.words[addr] = v
	m.mu.Unlock()
	m.Log.Add(buffer.Txn{Addr: addr, Bits: bits, Value: v, Write: true})
	return nil
}

// Peek returns the register at addr without logging the access.
func (m *Memory) Peek(addr uint64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.words[addr]
}

// Poke sets the register at addr without logging the access.
func (m *Memory) Poke(addr, v uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.words[addr] = v
}

// Addrs lists the addresses ever written, in increasing order.
func (m *Memory) Addrs() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	as := make([]uint64, 0, len(m.words))
	for a := range m.words {
		as = append(as, a)
	}
	sort.Slice(as, func(i, j int) bool { return as[i] < as[j] })
	return as
}
