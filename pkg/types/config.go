package types

import "time"

// FetchConfig holds settings for the fetch stage.
type FetchConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "triad/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the number of retry attempts for rate-limited or
	// transiently failing downloads (default 4).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// DownloadDelay is the delay between consecutive downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// SourcesDir is the directory downloaded source files are written to.
	SourcesDir string `json:"sources_dir" yaml:"sources_dir"`
}

// NormalizeConfig holds settings for the normalization stage.
type NormalizeConfig struct {
	// SourcesDir is the directory scanned for source files (.csv, .txt).
	SourcesDir string `json:"sources_dir" yaml:"sources_dir"`

	// RecordsDir is the base directory for normalized output
	// (contains normalized/, index/).
	RecordsDir string `json:"records_dir" yaml:"records_dir"`

	// StripCR removes a trailing carriage return from each row before
	// classification, for sources with Windows line endings. Off by
	// default: rows are split on bare newlines and tokens keep any CR.
	StripCR bool `json:"strip_cr" yaml:"strip_cr"`
}

// StoreConfig holds settings for the record store stage.
type StoreConfig struct {
	// RecordsDir is the base directory for normalized output
	// (contains normalized/, index/).
	RecordsDir string `json:"records_dir" yaml:"records_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch"`
	Normalize NormalizeConfig `json:"normalize" yaml:"normalize"`
	Store     StoreConfig     `json:"store" yaml:"store"`
}
