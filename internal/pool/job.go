package pool

// Job is a unit of work run exactly once by whichever worker dequeues it.
// A panic inside Run is contained by the worker and reported; it never
// reaches the submitter.
type Job interface {
	Run()
}

// JobFunc adapts an ordinary function to the Job interface.
type JobFunc func()

// Run calls f.
func (f JobFunc) Run() { f() }
