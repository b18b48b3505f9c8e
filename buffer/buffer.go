// Buffer register transactions.
//
// Every read and write that goes through an fpga.Memory bus is recorded
// in a fixed-size ring, so that tests and the pk2 tool can show exactly
// which words a command touched and in what order.  Once the ring is
// full, the oldest transactions are overwritten.
package buffer

import (
	"fmt"
	"sync"
)

// A Txn is one bus access.  Addr is a byte offset into the bus, Bits
// the width of the access, and Value the word read or written.
type Txn struct {
	Addr  uint64
	Bits  uint
	Value uint64
	Write bool
}

func (t Txn) String() string {
	op := "R"
	if t.Write {
		op = "W"
	}
	return fmt.Sprintf("%s %#08x/%d %#x", op, t.Addr, t.Bits, t.Value)
}

// Default number of transactions kept by a Ring.  A full Adc32Rf45 Init
// is about a thousand accesses (each field write is a read-modify-write),
// so this keeps several of them.
const DEFAULT_RING_SIZE = 16 * 1024

// Txns are stored in a ring buffer.  It is safe for concurrent use.
type Ring struct {
	mu    sync.Mutex
	buff  []Txn  // ring buffer of transactions
	iBuff int    // location for next transaction to be written
	nTxn  uint64 // total transactions recorded since the last Reset
}

// NewRing returns a ring holding up to n transactions; n <= 0 selects
// DEFAULT_RING_SIZE.
func NewRing(n int) *Ring {
	if n <= 0 {
		n = DEFAULT_RING_SIZE
	}
	return &Ring{buff: make([]Txn, n)}
}

// Add records t, overwriting the oldest transaction if the ring is full.
func (r *Ring) Add(t Txn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.iBuff >= len(r.buff) {
		r.iBuff = 0
	}
	r.buff[r.iBuff] = t
	r.iBuff++
	r.nTxn++
}

// Len is the number of transactions currently held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.len()
}

func (r *Ring) len() int {
	if r.nTxn < uint64(len(r.buff)) {
		return int(r.nTxn)
	}
	return len(r.buff)
}

// Total is the number of transactions recorded since the last Reset,
// including those already overwritten.
func (r *Ring) Total() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nTxn
}

// Last returns a copy of the most recent n transactions, oldest first.
// Fewer are returned if the ring holds fewer.
func (r *Ring) Last(n int) []Txn {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l := r.len(); n > l {
		n = l
	}
	if n <= 0 {
		return nil
	}
	out := make([]Txn, n)
	// the most recent n transactions might wrap around the end of the
	// buffer; copy the earlier part from its end first.
	start := r.iBuff - n
	if start >= 0 {
		copy(out, r.buff[start:r.iBuff])
		return out
	}
	k := copy(out, r.buff[len(r.buff)+start:])
	copy(out[k:], r.buff[:r.iBuff])
	return out
}

// Writes returns the write transactions among the most recent n.
func (r *Ring) Writes(n int) []Txn {
	var ws []Txn
	for _, t := range r.Last(n) {
		if t.Write {
			ws = append(ws, t)
		}
	}
	return ws
}

// Reset empties the ring.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.iBuff = 0
	r.nTxn = 0
}
