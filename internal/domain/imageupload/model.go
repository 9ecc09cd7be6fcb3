package imageupload

// Config controls upload validation.
type Config struct {
	MaxBytes int64
}

// Request is the JSON upload payload. Image holds base64 data, optionally as a data URL.
type Request struct {
	Image string `json:"image"`
}

// FileRequest is a raw upload, e.g. from a multipart form.
type FileRequest struct {
	Filename string
	MimeType string
	Content  []byte
}

// Response is returned to API consumers.
type Response struct {
	FileURL  string `json:"fileUrl"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}
