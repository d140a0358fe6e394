package kernel

// ResumeUID identifies a resume aggregate across the graph and vector stores.
type ResumeUID string

func NewResumeUID(id string) ResumeUID { return ResumeUID(id) }
func (r ResumeUID) String() string     { return string(r) }
func (r ResumeUID) IsEmpty() bool      { return string(r) == "" }

// JobID identifies an ingestion job record.
type JobID string

func NewJobID(id string) JobID { return JobID(id) }
func (j JobID) String() string { return string(j) }
func (j JobID) IsEmpty() bool  { return string(j) == "" }

// TaskID identifies a queue task envelope. One job may be carried by several
// task envelopes across retries.
type TaskID string

func NewTaskID(id string) TaskID { return TaskID(id) }
func (t TaskID) String() string  { return string(t) }
func (t TaskID) IsEmpty() bool   { return string(t) == "" }

// PointID identifies a single vector point. Fresh per write.
type PointID string

func NewPointID(id string) PointID { return PointID(id) }
func (p PointID) String() string   { return string(p) }
func (p PointID) IsEmpty() bool    { return string(p) == "" }
