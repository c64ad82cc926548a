package dto

// CleanupRequest selects which expired submissions to purge. DaysOld is the
// retention window; zero means the configured default.
type CleanupRequest struct {
	DaysOld int  `json:"days_old"`
	DryRun  bool `json:"dry_run"`
}

// CleanupResult reports what a cleanup pass removed, or would remove when
// DryRun is set. File and row deletion are independent, so both counts and
// any per-file failures are reported.
type CleanupResult struct {
	DryRun             bool     `json:"dry_run"`
	Cutoff             string   `json:"cutoff"`
	SubmissionsRemoved int      `json:"submissions_removed"`
	VenuesRemoved      int      `json:"venues_removed"`
	FilesRemoved       int      `json:"files_removed"`
	FailedFiles        []string `json:"failed_files,omitempty"`
}

// RetentionBucket counts bookings older than a given age.
type RetentionBucket struct {
	DaysOld     int `json:"days_old"`
	Submissions int `json:"submissions"`
	Venues      int `json:"venues"`
}

// CleanupStatsResponse previews how much data each retention window covers.
type CleanupStatsResponse struct {
	RetentionDays int               `json:"retention_days"`
	Buckets       []RetentionBucket `json:"buckets"`
}
