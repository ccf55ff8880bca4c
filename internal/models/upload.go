package models

// UploadRequest asks for a signed upload URL
type UploadRequest struct {
	ContentType string `json:"content_type" validate:"required,oneof=image/jpeg image/png image/webp image/gif video/mp4 video/quicktime"`
}

// UploadResponse carries a signed upload URL and the key to reference
// afterwards. The PUT must send ContentType as its Content-Type header.
type UploadResponse struct {
	UploadURL   string `json:"upload_url"`
	StorageID   string `json:"storage_id"`
	ContentType string `json:"content_type"`
}
