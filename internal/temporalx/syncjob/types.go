package syncjob

const (
	WorkflowName   = "sync_job"
	ActivityRunJob = "sync_job_run"
)

// RunResult is the activity's summary of one job invocation, recorded in
// the workflow history alongside the job_run row.
type RunResult struct {
	JobRunID string `json:"job_run_id"`
	JobType  string `json:"job_type"`
	Status   string `json:"status"`
	Stage    string `json:"stage,omitempty"`
	Error    string `json:"error,omitempty"`
}
