package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// IStorageClient uploads a file to the object storage collaborator and
// returns a publicly retrievable URL for it. The extraction backend can
// only process files it can fetch, so every upload carries a public-read
// permission grant.
type IStorageClient interface {
	UploadPublic(ctx context.Context, fileName, mimeType string, data []byte) (string, error)
}

type Client struct {
	Endpoint  string
	ProjectId string
	BucketId  string
	APIKey    string
	client    *http.Client
}

var _ IStorageClient = &Client{}

func NewClient(endpoint, projectId, bucketId, apiKey string) *Client {
	return &Client{
		Endpoint:  endpoint,
		ProjectId: projectId,
		BucketId:  bucketId,
		APIKey:    apiKey,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type createFileResponse struct {
	Id       string `json:"$id"`
	BucketId string `json:"bucketId"`
	Name     string `json:"name"`
}

// UploadPublic stores the file under a freshly generated unique id with a
// public-read grant and returns the deterministic view URL.
func (c *Client) UploadPublic(ctx context.Context, fileName, mimeType string, data []byte) (string, error) {
	fileId := uuid.New().String()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("fileId", fileId); err != nil {
		return "", fmt.Errorf("write fileId field: %w", err)
	}
	if err := writer.WriteField("permissions[]", `read("any")`); err != nil {
		return "", fmt.Errorf("write permissions field: %w", err)
	}

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/storage/buckets/%s/files", c.Endpoint, c.BucketId)
	req, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Appwrite-Project", c.ProjectId)
	if c.APIKey != "" {
		req.Header.Set("X-Appwrite-Key", c.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage upload failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("storage error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var created createFileResponse
	if err := json.Unmarshal(bodyBytes, &created); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if created.Id == "" {
		created.Id = fileId
	}

	return c.ViewURL(created.Id), nil
}

// ViewURL builds the public view address for an uploaded file.
func (c *Client) ViewURL(fileId string) string {
	return fmt.Sprintf("%s/storage/buckets/%s/files/%s/view?project=%s",
		c.Endpoint, c.BucketId, fileId, c.ProjectId)
}
