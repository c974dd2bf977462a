package merge

// SourceSummary is the outcome of reading one source document.
type SourceSummary struct {
	Source string `json:"source" yaml:"source"`
	Status string `json:"status" yaml:"status"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// FinalOutput is the structured summary printed after a merge.
type FinalOutput struct {
	Status       string          `json:"status" yaml:"status"`
	RunID        string          `json:"run_id" yaml:"run_id"`
	HistoryID    int64           `json:"history_id,omitempty" yaml:"history_id,omitempty"`
	Output       string          `json:"output" yaml:"output"`
	OutputSize   string          `json:"output_size,omitempty" yaml:"output_size,omitempty"`
	PersistError string          `json:"persist_error,omitempty" yaml:"persist_error,omitempty"`
	Properties   []string        `json:"properties" yaml:"properties"`
	Sources      []SourceSummary `json:"sources" yaml:"sources"`
	Stats        Stats           `json:"stats" yaml:"stats"`
}

// Stats provides summary statistics for the run.
type Stats struct {
	TotalSources     int     `json:"total_sources" yaml:"total_sources"`
	Successful       int     `json:"successful" yaml:"successful"`
	Failed           int     `json:"failed" yaml:"failed"`
	TotalTimeSeconds float64 `json:"total_time_seconds" yaml:"total_time_seconds"`
}
