package archive

// Stats accumulates per-kind counts and byte totals while an archive is
// parsed, the same rolling-aggregate shape the teacher's statistics
// package keeps for stream throughput, here keyed by entry Kind instead of
// a time window.
type Stats struct {
	Entries int
	Bytes   int
	ByKind  map[Kind]int
}

// Add records one entry of the given kind, for callers (dispatch's
// directory walker) accumulating stats outside of Parse's own loop.
func (s *Stats) Add(kind Kind, payloadBytes int) {
	s.add(kind, payloadBytes)
}

func (s *Stats) add(kind Kind, payloadBytes int) {
	if s.ByKind == nil {
		s.ByKind = make(map[Kind]int)
	}
	s.Entries++
	s.Bytes += payloadBytes
	s.ByKind[kind]++
}
