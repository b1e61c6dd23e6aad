// Package gpu holds the buffer-side bookkeeping for chunk geometry: byte
// pools with stable item handles and a light-source registry. The device
// buffer is simulated in host memory; Flush is where a renderer would map
// and copy.
package gpu

import (
	"errors"
	"fmt"
	"log"
	"sort"
)

// Handle identifies a pool item. The zero Handle is never issued.
type Handle uint32

var (
	ErrOutOfMemory   = errors.New("gpu: pool out of memory")
	ErrInvalidHandle = errors.New("gpu: invalid handle")
)

const (
	DefaultInitialBytes = 1 << 20
	DefaultMaxBytes     = 64 << 20
)

type item struct {
	offset int
	size   int
	live   bool
}

type write struct {
	offset int
	data   []byte
}

// Stats is a point-in-time view of pool usage.
type Stats struct {
	Items      int
	UsedBytes  int
	Capacity   int
	Fragmented int
	Grows      int
	Compacts   int
}

// Pool is a growable byte buffer carved into items. New data is appended at
// the end; freed and resized items leave holes that Flush compacts once
// fragmentation passes a quarter of capacity.
type Pool struct {
	Name   string
	Logger *log.Logger
	// OnResize, if set, is called after growth or compaction with the new
	// used byte count.
	OnResize func(name string, used int)

	capacity int
	maxBytes int
	tail     int

	fragmented int
	grows      int
	compacts   int

	items   []item
	free    []Handle
	pending []write
	device  []byte
}

// NewPool creates a pool with the given initial capacity that may double up
// to maxBytes.
func NewPool(name string, initialBytes, maxBytes int) *Pool {
	if initialBytes <= 0 {
		initialBytes = DefaultInitialBytes
	}
	if maxBytes < initialBytes {
		maxBytes = initialBytes
	}
	return &Pool{
		Name:     name,
		capacity: initialBytes,
		maxBytes: maxBytes,
		device:   make([]byte, initialBytes),
	}
}

func (p *Pool) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.Default()
}

func (p *Pool) get(h Handle) (*item, error) {
	if h == 0 || int(h) > len(p.items) || !p.items[h-1].live {
		return nil, fmt.Errorf("%w: %s pool handle %d", ErrInvalidHandle, p.Name, h)
	}
	return &p.items[h-1], nil
}

// reserve finds room for size bytes at the tail, compacting then growing as
// needed. It returns the offset.
func (p *Pool) reserve(size int) (int, error) {
	if p.tail+size > p.capacity && p.fragmented > 0 {
		p.compact()
	}
	if p.tail+size > p.capacity {
		if !p.grow(p.tail + size) {
			err := fmt.Errorf("%w: %s pool needs %d bytes (max %d)", ErrOutOfMemory, p.Name, p.tail+size, p.maxBytes)
			p.logger().Print(err)
			return 0, err
		}
	}
	off := p.tail
	p.tail += size
	return off, nil
}

func (p *Pool) grow(required int) bool {
	if required > p.maxBytes {
		return false
	}
	newCap := min(max(p.capacity*2, required), p.maxBytes)
	dev := make([]byte, newCap)
	copy(dev, p.device[:p.tail])
	p.device = dev
	p.capacity = newCap
	p.grows++
	p.logger().Printf("%s pool grew to %d bytes", p.Name, p.capacity)
	p.resized()
	return true
}

func (p *Pool) resized() {
	if p.OnResize != nil {
		p.OnResize(p.Name, p.tail)
	}
}

// Emplace allocates an item of size bytes and returns its handle.
func (p *Pool) Emplace(size int) (Handle, error) {
	off, err := p.reserve(size)
	if err != nil {
		return 0, err
	}
	it := item{offset: off, size: size, live: true}
	if n := len(p.free); n > 0 {
		h := p.free[n-1]
		p.free = p.free[:n-1]
		p.items[h-1] = it
		return h, nil
	}
	p.items = append(p.items, it)
	return Handle(len(p.items)), nil
}

// Update replaces an item's contents. A size change moves the item to a new
// byte range; the handle stays the same.
func (p *Pool) Update(h Handle, data []byte) error {
	it, err := p.get(h)
	if err != nil {
		return err
	}
	if len(data) != it.size {
		off, err := p.reserve(len(data))
		if err != nil {
			return err
		}
		// reserve may have compacted and moved the item.
		it = &p.items[h-1]
		p.fragmented += it.size
		it.offset = off
		it.size = len(data)
	}
	if len(data) > 0 {
		p.pending = append(p.pending, write{offset: it.offset, data: append([]byte(nil), data...)})
	}
	return nil
}

// Remove frees an item and returns its slot index.
func (p *Pool) Remove(h Handle) (int, error) {
	it, err := p.get(h)
	if err != nil {
		return -1, err
	}
	p.fragmented += it.size
	*it = item{}
	p.free = append(p.free, h)
	return int(h) - 1, nil
}

// Flush writes all pending changes to the device buffer. It reports whether
// items moved because of compaction, in which case any stored offsets are
// stale.
func (p *Pool) Flush() bool {
	for _, w := range p.pending {
		copy(p.device[w.offset:], w.data)
	}
	p.pending = p.pending[:0]

	if p.fragmented > p.capacity/4 {
		p.compact()
		return true
	}
	return false
}

func (p *Pool) compact() {
	// Writes queued against old offsets must land first.
	for _, w := range p.pending {
		copy(p.device[w.offset:], w.data)
	}
	p.pending = p.pending[:0]

	order := make([]int, 0, len(p.items))
	for i := range p.items {
		if p.items[i].live {
			order = append(order, i)
		}
	}
	sort.Slice(order, func(a, b int) bool { return p.items[order[a]].offset < p.items[order[b]].offset })

	dev := make([]byte, p.capacity)
	cur := 0
	for _, i := range order {
		it := &p.items[i]
		copy(dev[cur:], p.device[it.offset:it.offset+it.size])
		it.offset = cur
		cur += it.size
	}
	p.device = dev
	p.tail = cur
	p.fragmented = 0
	p.compacts++
	p.logger().Printf("%s pool compacted: %d bytes used, %d items moved", p.Name, cur, len(order))
	p.resized()
}

// Bytes returns the flushed device contents of an item.
func (p *Pool) Bytes(h Handle) ([]byte, error) {
	it, err := p.get(h)
	if err != nil {
		return nil, err
	}
	return p.device[it.offset : it.offset+it.size], nil
}

// Offset returns the byte offset of an item.
func (p *Pool) Offset(h Handle) (int, error) {
	it, err := p.get(h)
	if err != nil {
		return 0, err
	}
	return it.offset, nil
}

// Size returns the byte size of an item.
func (p *Pool) Size(h Handle) int {
	it, err := p.get(h)
	if err != nil {
		return 0
	}
	return it.size
}

// Valid reports whether h refers to a live item.
func (p *Pool) Valid(h Handle) bool {
	_, err := p.get(h)
	return err == nil
}

// Slot returns the dense slot index of a handle.
func Slot(h Handle) int { return int(h) - 1 }

// Pending returns the number of queued writes.
func (p *Pool) Pending() int { return len(p.pending) }

// Stats reports pool usage.
func (p *Pool) Stats() Stats {
	return Stats{
		Items:      len(p.items) - len(p.free),
		UsedBytes:  p.tail - p.fragmented,
		Capacity:   p.capacity,
		Fragmented: p.fragmented,
		Grows:      p.grows,
		Compacts:   p.compacts,
	}
}
