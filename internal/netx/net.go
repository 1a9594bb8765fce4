// Package netx contains plain-HTTP helpers that sit next to the gRPC API,
// such as pushing avatar images to presigned object-storage URLs.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// DefaultContentType is used when the caller does not know the image type.
const DefaultContentType = "application/octet-stream"

// UploadToPresignedURL PUTs body to a presigned URL (S3 or compatible).
// Any non-2xx response is reported together with the response body.
func UploadToPresignedURL(ctx context.Context, hc *http.Client, url, contentType string, body []byte) error {
	if hc == nil {
		hc = http.DefaultClient
	}
	if contentType == "" {
		contentType = DefaultContentType
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}
