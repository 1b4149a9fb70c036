package detection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/injuryshield/ppe-monitor/internal/models"
)

type Client struct {
	URL string

	// detections below this score are dropped before analysis
	ConfidenceThreshold float64
}

func NewClient(baseURL string, confidenceThreshold float64) *Client {
	return &Client{URL: baseURL, ConfidenceThreshold: confidenceThreshold}
}

// Detect отправляет изображение JPEG байтами на /predict и возвращает детекции
func (c *Client) Detect(imageData []byte, streamID string) ([]models.Detection, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	// Создаем form field с правильным Content-Type
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="frame.jpg"`)
	h.Set("Content-Type", "image/jpeg")

	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create form part: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close writer: %w", err)
	}

	req, err := http.NewRequest("POST", c.URL+"/predict", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bad status: %s, error: %s", resp.Status, bodyBytes)
	}

	var detections []models.Detection
	if err := json.NewDecoder(resp.Body).Decode(&detections); err != nil {
		return nil, fmt.Errorf("decode detections for %s: %w", streamID, err)
	}

	filtered := detections[:0]
	for _, det := range detections {
		if det.Score < c.ConfidenceThreshold {
			continue
		}
		filtered = append(filtered, det)
	}

	return filtered, nil
}
