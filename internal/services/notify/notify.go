package notify

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
)

// Client отправляет SMS через HTTP-шлюз
type Client struct {
	endpoint   string
	accountSID string
	authToken  string
	from       string
	recipient  string

	enabled bool
}

// NewClient validates the gateway credentials up front. With incomplete
// credentials the client stays constructed but disabled, and every Send
// reports failure; the monitor keeps running without alerts.
func NewClient(endpoint, accountSID, authToken, from, recipient string) *Client {
	c := &Client{
		endpoint:   endpoint,
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		recipient:  recipient,
	}

	c.enabled = endpoint != "" && accountSID != "" && authToken != "" && from != "" && recipient != ""
	if !c.enabled {
		log.Println("Notify: SMS gateway credentials not fully configured, alerts disabled")
	}

	return c
}

// Send доставляет одно сообщение; возвращает false при любой ошибке
func (c *Client) Send(text string) bool {
	if !c.enabled {
		return false
	}

	form := url.Values{}
	form.Set("From", c.from)
	form.Set("To", c.recipient)
	form.Set("Body", text)

	req, err := http.NewRequest("POST", c.endpoint+"/messages", strings.NewReader(form.Encode()))
	if err != nil {
		log.Printf("Notify: create request: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("Notify: http request: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.Printf("Notify: bad status: %s, error: %s", resp.Status, bodyBytes)
		return false
	}

	return true
}
