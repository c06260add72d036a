package weread

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// cookieDomain is the key CookieCloud stores the reader cookies under.
const cookieDomain = "weread.qq.com"

func parseCookieString(raw string) ([]*http.Cookie, error) {
	var cookies []*http.Cookie
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, found := strings.Cut(part, "=")
		if !found || name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	if len(cookies) == 0 {
		return nil, fmt.Errorf("no cookies in cookie string")
	}
	return cookies, nil
}

type cloudCookieResponse struct {
	CookieData map[string][]cloudCookie `json:"cookie_data"`
}

type cloudCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FetchCloudCookie retrieves the reader cookie string from a CookieCloud
// instance.
func FetchCloudCookie(ctx context.Context, serverURL, id, password string, timeout time.Duration) (string, error) {
	reqURL := strings.TrimSuffix(serverURL, "/") + "/get/" + id

	form := url.Values{"password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var payload cloudCookieResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	cookies, ok := payload.CookieData[cookieDomain]
	if !ok || len(cookies) == 0 {
		return "", fmt.Errorf("no %s cookies in cookiecloud response", cookieDomain)
	}

	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; "), nil
}
