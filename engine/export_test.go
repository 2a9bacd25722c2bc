package engine

// ApplyDelta exposes delta application to the external tests.
func (s *MatchState) ApplyDelta(d StateDelta) StepReport {
	var rep StepReport
	s.apply(d, &rep)
	return rep
}
