package requests

// UploadBase64Request is the JSON body of POST /api/upload. Required fields
// are checked by the ingestion service so the client sees a single message.
type UploadBase64Request struct {
	Base64Data string `json:"base64Data" example:"data:image/jpeg;base64,/9j/4AAQ..."`
	ClientID   string `json:"clientId" example:"c1"`
	Type       string `json:"type" example:"progress"`
	FileName   string `json:"fileName,omitempty" example:"IMG_0001.jpg"`
}

// DeleteRequest is the JSON body of DELETE /api/delete.
type DeleteRequest struct {
	ImageURL string `json:"imageUrl" example:"https://photos.example.com/file-1700000000000-42.jpg"`
}
