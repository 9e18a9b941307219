package sim

// Job is a unit of work travelling through the network.
// Remaining is expressed in absolute time units of dedicated service and
// never goes negative.
type Job struct {
	ID          JobID
	Class       ClassID
	ArrivalTime float64 // external arrival into the network
	VisitStart  float64 // arrival at the node currently holding it
	Remaining   float64
}

// consume removes work from the job, clamping at zero.
func (j *Job) consume(work float64) {
	j.Remaining -= work
	if j.Remaining < 0 {
		j.Remaining = 0
	}
}
