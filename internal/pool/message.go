package pool

// message is what travels on the control channel. The set of
// implementations is closed: a message either carries a job or tells the
// receiving worker to stop.
type message interface {
	isMessage()
}

type runMessage struct {
	job Job
}

type stopMessage struct{}

func (runMessage) isMessage()  {}
func (stopMessage) isMessage() {}
