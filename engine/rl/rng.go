package rl

// splitmix64Source is a math/rand.Source whose entire state is one uint64.
// Agent uses it instead of the stdlib source so Export/Import can snapshot
// and restore the exact point in the random stream: spec.md requires
// import_state(export_state(agent)).SelectAction(s) to match the original
// agent's next SelectAction(s) call, which means the RNG draw sequence must
// resume exactly where it left off, not restart from the seed.
type splitmix64Source struct {
	state uint64
}

func newSplitmix64Source(seed int64) *splitmix64Source {
	return &splitmix64Source{state: uint64(seed)}
}

// Int63 implements math/rand.Source.
func (s *splitmix64Source) Int63() int64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return int64(z >> 1)
}

// Seed implements math/rand.Source.
func (s *splitmix64Source) Seed(seed int64) {
	s.state = uint64(seed)
}

// Snapshot returns the generator's entire state.
func (s *splitmix64Source) Snapshot() uint64 { return s.state }

// Restore resets the generator to a previously snapshotted state.
func (s *splitmix64Source) Restore(state uint64) { s.state = state }
