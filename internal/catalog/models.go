package catalog

import "time"

// Status tracks where a catalogued file stands in transcription.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// ParseStatus converts a string into a Status, reporting false when unknown.
func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusPending, StatusDone, StatusFailed, StatusSkipped:
		return Status(value), true
	}
	return "", false
}

// Entry is one catalogued media file.
type Entry struct {
	ID            int64         `json:"id"`
	Path          string        `json:"path"`
	SizeBytes     int64         `json:"size_bytes"`
	Duration      time.Duration `json:"duration"`
	HasAudio      bool          `json:"has_audio"`
	HasSubtitles  bool          `json:"has_subtitles"`
	AudioLanguage string        `json:"audio_language,omitempty"`
	Status        Status        `json:"status"`
	OutputPath    string        `json:"output_path,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	ScannedAt     time.Time     `json:"scanned_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Eligible reports whether the entry should be transcribed.
func (e Entry) Eligible() bool {
	return e.Status == StatusPending && e.HasAudio && !e.HasSubtitles
}
