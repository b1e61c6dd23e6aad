package world

import "voxcore/internal/chunk"

// store keeps chunks in a dense slice indexed by a key map. Erased slots
// are reused, so the index of a live chunk never changes.
type store struct {
	slots []*chunk.Chunk
	index map[ChunkCoord]int
	free  []int
}

func newStore() store {
	return store{index: make(map[ChunkCoord]int)}
}

func (s *store) get(c ChunkCoord) *chunk.Chunk {
	i, ok := s.index[c]
	if !ok {
		return nil
	}
	return s.slots[i]
}

// insert stores ch under c, replacing nothing: an existing chunk wins and
// is returned.
func (s *store) insert(c ChunkCoord, ch *chunk.Chunk) *chunk.Chunk {
	if i, ok := s.index[c]; ok {
		return s.slots[i]
	}
	if n := len(s.free); n > 0 {
		i := s.free[n-1]
		s.free = s.free[:n-1]
		s.slots[i] = ch
		s.index[c] = i
		return ch
	}
	s.slots = append(s.slots, ch)
	s.index[c] = len(s.slots) - 1
	return ch
}

func (s *store) erase(c ChunkCoord) {
	i, ok := s.index[c]
	if !ok {
		return
	}
	s.slots[i] = nil
	s.free = append(s.free, i)
	delete(s.index, c)
}

func (s *store) len() int { return len(s.index) }

// each visits live chunks in slot order.
func (s *store) each(fn func(c ChunkCoord, ch *chunk.Chunk)) {
	for _, ch := range s.slots {
		if ch != nil {
			fn(coordOf(ch), ch)
		}
	}
}

func coordOf(ch *chunk.Chunk) ChunkCoord {
	return ChunkCoordOf(ch.Origin[0], ch.Origin[1], ch.Origin[2])
}
