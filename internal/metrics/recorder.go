package metrics

// Recorder defines the observability hooks of the lifecycle controller.
type Recorder interface {
	IncEvent(kind string)
	IncEvolution(from, to string)
	IncLifecycleReset()
	IncPersistenceFailure(op string)
	IncRestartFailure()
	SetExperience(xp float64)
	SetAgeDays(days int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncEvent(string)              {}
func (NoopRecorder) IncEvolution(string, string)  {}
func (NoopRecorder) IncLifecycleReset()           {}
func (NoopRecorder) IncPersistenceFailure(string) {}
func (NoopRecorder) IncRestartFailure()           {}
func (NoopRecorder) SetExperience(float64)        {}
func (NoopRecorder) SetAgeDays(int)               {}
