package contentstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// IPFSBackend is a Backend over a local or remote IPFS HTTP API
// (spec §4.6): cat to fetch, add+pin to publish. This is the one
// concrete Backend shipped with the client; tests exercise Client
// against a fake Backend instead.
type IPFSBackend struct {
	baseURL string
	http    *http.Client
}

// NewIPFSBackend builds a Backend talking to the IPFS HTTP API rooted
// at baseURL (e.g. "http://127.0.0.1:5001").
func NewIPFSBackend(baseURL string) *IPFSBackend {
	return &IPFSBackend{baseURL: baseURL, http: &http.Client{}}
}

// Get fetches the raw bytes behind a content identifier via `cat`.
func (b *IPFSBackend) Get(ctx context.Context, cid string) ([]byte, error) {
	url := fmt.Sprintf("%s/api/v0/cat?arg=%s", b.baseURL, cid)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ipfs cat %s: status %s", cid, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Put publishes data via `add` and returns the resulting CID.
func (b *IPFSBackend) Put(ctx context.Context, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "batch.toml")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/api/v0/add", b.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := b.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ipfs add: status %s", resp.Status)
	}

	var result struct {
		Hash string `json:"Hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Hash, nil
}

// Pin requests that the store retain cid indefinitely, matching
// spec §4.6's mandatory-pin requirement.
func (b *IPFSBackend) Pin(ctx context.Context, cid string) error {
	url := fmt.Sprintf("%s/api/v0/pin/add?arg=%s", b.baseURL, cid)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ipfs pin %s: status %s", cid, resp.Status)
	}
	return nil
}
