package responses

import "time"

// UploadResponse is returned by POST /api/upload.
type UploadResponse struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// InfoResponse is returned by GET /api/info/{filename}.
type InfoResponse struct {
	Success  bool      `json:"success"`
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// SuccessResponse acknowledges operations with no payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
