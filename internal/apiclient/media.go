package apiclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
)

// PresignedURLRequest asks for a direct-upload URL for one file.
type PresignedURLRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required"`
	Size        int64  `json:"size" validate:"required,gt=0"`
}

// PresignedURLResponse carries the upload URL and the storage key the
// file will be addressable by.
type PresignedURLResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// ChunkResponse acknowledges one uploaded chunk. FileKey is issued on
// the first chunk and must be echoed on every later one.
type ChunkResponse struct {
	FileKey  string `json:"file_key"`
	Received int    `json:"received"`
	Complete bool   `json:"complete"`
}

// PresignedURL requests a direct-upload URL. The binary transfer itself
// bypasses the API server.
func (c *Client) PresignedURL(ctx context.Context, req PresignedURLRequest) (PresignedURLResponse, error) {
	var out PresignedURLResponse
	if err := checkPayload(req); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/media/presigned-url", nil, req, &out)
	return out, err
}

// UploadChunk sends one chunk of a large file. Chunks carry an
// incrementing index and total count; fileKey is empty only for index 0.
func (c *Client) UploadChunk(ctx context.Context, name, fileKey string, index, total int, data []byte) (ChunkResponse, error) {
	var out ChunkResponse
	if name == "" {
		return out, fmt.Errorf("%w: file name is required", ErrValidation)
	}
	if index < 0 || total <= 0 || index >= total {
		return out, fmt.Errorf("%w: chunk index %d out of range for total %d", ErrValidation, index, total)
	}
	if index > 0 && fileKey == "" {
		return out, fmt.Errorf("%w: chunks after the first require the file key", ErrValidation)
	}
	body := map[string]any{
		"name":  name,
		"index": index,
		"total": total,
		"data":  base64.StdEncoding.EncodeToString(data),
	}
	if fileKey != "" {
		body["file_key"] = fileKey
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/media/uploads/chunk", nil, body, &out)
	return out, err
}
