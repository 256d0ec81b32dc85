package xui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Client — клиент VPN в настройках inbound панели 3x-ui. Трафик приходит
// отдельно из clientStats и в настройки не сериализуется.
type Client struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Enable     bool   `json:"enable"`
	ExpiryTime int64  `json:"expiryTime"` // Unix-время в миллисекундах, 0 — бессрочно
	Flow       string `json:"flow"`
	LimitIP    int    `json:"limitIp"` // 0 — без ограничения устройств
	SubID      string `json:"subId"`
	TotalGB    int64  `json:"totalGB"` // 0 — безлимитный трафик
	Up         int64  `json:"-"`
	Down       int64  `json:"-"`
	Total      int64  `json:"-"`
}

// APIClient — HTTP-клиент панели 3x-ui с сессионной авторизацией.
type APIClient struct {
	host     string
	username string
	password string
	token    string
	http     *http.Client
}

type apiResponse struct {
	Success bool            `json:"success"`
	Msg     string          `json:"msg"`
	Obj     json.RawMessage `json:"obj"`
}

type inbound struct {
	ID          int          `json:"id"`
	Settings    string       `json:"settings"`
	ClientStats []clientStat `json:"clientStats"`
}

type clientStat struct {
	Email      string `json:"email"`
	Up         int64  `json:"up"`
	Down       int64  `json:"down"`
	Total      int64  `json:"total"`
	ExpiryTime int64  `json:"expiryTime"`
}

func NewAPIClient(host, username, password, token string) *APIClient {
	jar, _ := cookiejar.New(nil)
	return &APIClient{
		host:     strings.TrimRight(host, "/"),
		username: username,
		password: password,
		token:    token,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Jar:     jar,
		},
	}
}

// Login выполняет вход в панель и сохраняет сессионную cookie.
func (c *APIClient) Login(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)
	if c.token != "" {
		form.Set("loginSecret", c.token)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("xui login: %w", err)
	}
	defer resp.Body.Close()
	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("xui login: decode response: %w", err)
	}
	if !apiResp.Success {
		return fmt.Errorf("xui login failed: %s", apiResp.Msg)
	}
	return nil
}

// GetClientByEmail ищет клиента по email в настройках inbound и дополняет
// его статистикой трафика. Отсутствие клиента — не ошибка: (nil, nil).
func (c *APIClient) GetClientByEmail(ctx context.Context, inboundID int, email string) (*Client, error) {
	ib, err := c.getInbound(ctx, inboundID)
	if err != nil {
		return nil, err
	}
	var settings struct {
		Clients []Client `json:"clients"`
	}
	if err := json.Unmarshal([]byte(ib.Settings), &settings); err != nil {
		return nil, fmt.Errorf("xui: parse inbound settings: %w", err)
	}
	for _, client := range settings.Clients {
		if client.Email != email {
			continue
		}
		for _, stat := range ib.ClientStats {
			if stat.Email == email {
				client.Up = stat.Up
				client.Down = stat.Down
				client.Total = stat.Total
				if client.ExpiryTime == 0 {
					client.ExpiryTime = stat.ExpiryTime
				}
				break
			}
		}
		return &client, nil
	}
	return nil, nil
}

// AddClient добавляет клиента в указанный inbound.
func (c *APIClient) AddClient(ctx context.Context, inboundID int, client Client) error {
	return c.postClient(ctx, "/panel/api/inbounds/addClient", inboundID, client)
}

// UpdateClient обновляет клиента панели по его UUID одним вызовом.
func (c *APIClient) UpdateClient(ctx context.Context, inboundID int, clientID string, client Client) error {
	return c.postClient(ctx, "/panel/api/inbounds/updateClient/"+clientID, inboundID, client)
}

func (c *APIClient) getInbound(ctx context.Context, inboundID int) (*inbound, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/panel/api/inbounds/get/%d", c.host, inboundID), nil)
	if err != nil {
		return nil, err
	}
	apiResp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var ib inbound
	if err := json.Unmarshal(apiResp.Obj, &ib); err != nil {
		return nil, fmt.Errorf("xui: decode inbound: %w", err)
	}
	return &ib, nil
}

func (c *APIClient) postClient(ctx context.Context, path string, inboundID int, client Client) error {
	settings, err := json.Marshal(map[string]any{"clients": []Client{client}})
	if err != nil {
		return fmt.Errorf("xui: marshal client settings: %w", err)
	}
	body, err := json.Marshal(map[string]any{
		"id":       inboundID,
		"settings": string(settings),
	})
	if err != nil {
		return fmt.Errorf("xui: marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = c.do(req)
	return err
}

func (c *APIClient) do(req *http.Request) (*apiResponse, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("xui request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("xui request %s: status %d", req.URL.Path, resp.StatusCode)
	}
	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("xui request %s: decode response: %w", req.URL.Path, err)
	}
	if !apiResp.Success {
		return nil, fmt.Errorf("xui request %s: %s", req.URL.Path, apiResp.Msg)
	}
	return &apiResp, nil
}
