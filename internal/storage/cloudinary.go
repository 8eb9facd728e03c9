package storage

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CloudinaryProvider uploads through Cloudinary's unsigned-preset video API
// and deletes through the signed destroy endpoint.
type CloudinaryProvider struct {
	cloudName    string
	apiKey       string
	apiSecret    string
	uploadPreset string
	client       *http.Client
}

func NewCloudinaryProvider(cloudName, apiKey, apiSecret, uploadPreset string) *CloudinaryProvider {
	return &CloudinaryProvider{
		cloudName:    cloudName,
		apiKey:       apiKey,
		apiSecret:    apiSecret,
		uploadPreset: uploadPreset,
		client:       &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *CloudinaryProvider) Name() string { return "cloudinary" }

func (p *CloudinaryProvider) Upload(key string, body io.ReadSeeker, contentType string) (*UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", key)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, body); err != nil {
		return nil, err
	}
	w.WriteField("upload_preset", p.uploadPreset)
	w.WriteField("public_id", strings.TrimSuffix(key, extOf(key)))
	if err := w.Close(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/video/upload", p.cloudName)
	resp, err := p.client.Post(endpoint, w.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("cloudinary upload: status %d: %s", resp.StatusCode, msg)
	}

	var result struct {
		PublicID  string `json:"public_id"`
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	thumb := ""
	if dot := strings.LastIndex(result.SecureURL, "."); dot > strings.LastIndex(result.SecureURL, "/") {
		thumb = result.SecureURL[:dot] + ".jpg"
	}

	return &UploadResult{
		RemoteID:     result.PublicID,
		URL:          result.SecureURL,
		ThumbnailURL: thumb,
	}, nil
}

// Delete destroys the remote asset. Cloudinary requires a SHA1 signature
// over the sorted params plus the API secret.
func (p *CloudinaryProvider) Delete(remoteID string) error {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	toSign := fmt.Sprintf("public_id=%s&timestamp=%s%s", remoteID, ts, p.apiSecret)
	sum := sha1.Sum([]byte(toSign))

	form := url.Values{}
	form.Set("public_id", remoteID)
	form.Set("timestamp", ts)
	form.Set("api_key", p.apiKey)
	form.Set("signature", hex.EncodeToString(sum[:]))

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/video/destroy", p.cloudName)
	resp, err := p.client.PostForm(endpoint, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("cloudinary destroy: status %d", resp.StatusCode)
	}

	var result struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	// "not found" counts as deleted for cleanup purposes
	if result.Result != "ok" && result.Result != "not found" {
		return fmt.Errorf("cloudinary destroy: %s", result.Result)
	}
	return nil
}

func (p *CloudinaryProvider) Exists(remoteID string) (bool, error) {
	endpoint := fmt.Sprintf("https://res.cloudinary.com/%s/video/upload/%s", p.cloudName, remoteID)
	req, err := http.NewRequest(http.MethodHead, endpoint, nil)
	if err != nil {
		return false, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()
	return resp.StatusCode == 200, nil
}

func extOf(key string) string {
	if dot := strings.LastIndex(key, "."); dot >= 0 {
		return key[dot:]
	}
	return ""
}
