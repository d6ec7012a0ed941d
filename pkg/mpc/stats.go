package mpc

// ExecutionStats counts the work done by one executor. The driver merges the
// per-party stats and logs them at session completion.
type ExecutionStats struct {
	AddGates  int
	MulGates  int
	Rounds    int
	BytesSent int
}

// Merge accumulates other into s.
func (s *ExecutionStats) Merge(other ExecutionStats) {
	s.AddGates += other.AddGates
	s.MulGates += other.MulGates
	s.Rounds += other.Rounds
	s.BytesSent += other.BytesSent
}
