package engine

// PawnEntry caches one side-independent pawn-structure evaluation, keyed
// by the position's pawn-only Zobrist key (board.Position.PawnKey).
// Pawn structure changes on a small fraction of moves, so this table
// stays hot far longer than the main transposition table.
type PawnEntry struct {
	Key     uint64
	MgScore int16
	EgScore int16
}

// PawnTable is a direct-mapped cache of pawn-structure evaluations,
// always-replace like the transposition table it sits beside.
type PawnTable struct {
	entries []PawnEntry
	mask    uint64

	hits   uint64
	probes uint64
}

// NewPawnTable allocates a pawn hash table sized to sizeMB, rounded down
// to a power of two so probing can mask instead of mod.
func NewPawnTable(sizeMB int) *PawnTable {
	const entrySize = uint64(12) // Key(8) + MgScore(2) + EgScore(2)
	numEntries := roundDownToPowerOf2(uint64(sizeMB) * 1024 * 1024 / entrySize)
	if numEntries == 0 {
		numEntries = 1
	}

	return &PawnTable{
		entries: make([]PawnEntry, numEntries),
		mask:    numEntries - 1,
	}
}

// Probe returns the cached middlegame/endgame scores for key, if present.
func (pt *PawnTable) Probe(key uint64) (mg, eg int, found bool) {
	pt.probes++
	entry := &pt.entries[key&pt.mask]
	if entry.Key == key {
		pt.hits++
		return int(entry.MgScore), int(entry.EgScore), true
	}
	return 0, 0, false
}

// Store records a pawn-structure evaluation, replacing whatever key
// previously occupied the slot.
func (pt *PawnTable) Store(key uint64, mg, eg int) {
	entry := &pt.entries[key&pt.mask]
	*entry = PawnEntry{Key: key, MgScore: int16(mg), EgScore: int16(eg)}
}

// Clear empties the table and resets its hit-rate statistics.
func (pt *PawnTable) Clear() {
	for i := range pt.entries {
		pt.entries[i] = PawnEntry{}
	}
	pt.hits = 0
	pt.probes = 0
}

// HitRate returns the cache hit rate as a percentage, mirroring
// TranspositionTable.HitRate for consistent UCI debug reporting.
func (pt *PawnTable) HitRate() float64 {
	if pt.probes == 0 {
		return 0
	}
	return float64(pt.hits) / float64(pt.probes) * 100
}
