package photo

import "time"

// StoredImage describes one canonical image held by the Blob Store.
type StoredImage struct {
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created"`
	ModifiedAt time.Time `json:"modified"`

	ContentType string `json:"-"`
}

// IntakeKind names the encoding a client used to submit a photo.
type IntakeKind string

const (
	IntakeBase64    IntakeKind = "base64"
	IntakeMultipart IntakeKind = "multipart"
)

// IngestionRequest is one upload attempt. Exactly one of Base64Data or
// StagedPath is meaningful, selected by Kind.
type IngestionRequest struct {
	Kind     IntakeKind
	ClientID string
	Type     string
	FileName string

	// IntakeBase64
	Base64Data string

	// IntakeMultipart: the file has already been written to StagedPath by
	// the transport layer. The service owns StagedPath from here on and
	// releases it on every exit path.
	StagedPath string
	FieldName  string

	// MimeType is the declared content type, used to reject non-images
	// before decoding.
	MimeType string
}

// IngestionResult is returned for a successful ingestion.
type IngestionResult struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// PhotoRecord is the metadata document saved for every stored photo.
type PhotoRecord struct {
	ID           string    `json:"id"`
	ClientID     string    `json:"client_id"`
	Type         string    `json:"type"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name,omitempty"`
	URL          string    `json:"url"`
	Bytes        int64     `json:"bytes"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	CreatedAt    time.Time `json:"created_at"`
}
