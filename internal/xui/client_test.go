package xui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPanel(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAPIClient(srv.URL, "admin", "secret", "")
}

func inboundResponse(t *testing.T, clients []Client, stats []clientStat) []byte {
	t.Helper()
	settings, err := json.Marshal(map[string]any{"clients": clients})
	require.NoError(t, err)
	obj, err := json.Marshal(inbound{ID: 1, Settings: string(settings), ClientStats: stats})
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{"success": true, "obj": json.RawMessage(obj)})
	require.NoError(t, err)
	return body
}

func TestLogin(t *testing.T) {
	var gotUsername, gotPassword string
	panel := newTestPanel(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/login", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotUsername = r.FormValue("username")
		gotPassword = r.FormValue("password")
		w.Write([]byte(`{"success":true}`))
	})

	require.NoError(t, panel.Login(context.Background()))
	assert.Equal(t, "admin", gotUsername)
	assert.Equal(t, "secret", gotPassword)
}

func TestLoginFailure(t *testing.T) {
	panel := newTestPanel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"msg":"invalid credentials"}`))
	})

	err := panel.Login(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestGetClientByEmail(t *testing.T) {
	clients := []Client{
		{ID: "uuid-1", Email: "42", Enable: true, LimitIP: 2, ExpiryTime: 1000},
		{ID: "uuid-2", Email: "43", Enable: true, LimitIP: 1},
	}
	stats := []clientStat{{Email: "42", Up: 10, Down: 20, Total: 100}}
	panel := newTestPanel(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/panel/api/inbounds/get/1", r.URL.Path)
		w.Write(inboundResponse(t, clients, stats))
	})

	client, err := panel.GetClientByEmail(context.Background(), 1, "42")
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, "uuid-1", client.ID)
	assert.Equal(t, 2, client.LimitIP)
	assert.Equal(t, int64(10), client.Up)
	assert.Equal(t, int64(20), client.Down)
	assert.Equal(t, int64(100), client.Total)
	assert.Equal(t, int64(1000), client.ExpiryTime)
}

// Отсутствующий клиент — не ошибка.
func TestGetClientByEmailAbsent(t *testing.T) {
	panel := newTestPanel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(inboundResponse(t, nil, nil))
	})

	client, err := panel.GetClientByEmail(context.Background(), 1, "42")
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestAddClient(t *testing.T) {
	var gotBody struct {
		ID       int    `json:"id"`
		Settings string `json:"settings"`
	}
	panel := newTestPanel(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/panel/api/inbounds/addClient", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"success":true}`))
	})

	client := Client{ID: "uuid-1", Email: "42", Enable: true, LimitIP: 3, ExpiryTime: 5000}
	require.NoError(t, panel.AddClient(context.Background(), 1, client))

	assert.Equal(t, 1, gotBody.ID)
	var settings struct {
		Clients []Client `json:"clients"`
	}
	require.NoError(t, json.Unmarshal([]byte(gotBody.Settings), &settings))
	require.Len(t, settings.Clients, 1)
	assert.Equal(t, client, settings.Clients[0])
}

func TestUpdateClientPath(t *testing.T) {
	var gotPath string
	panel := newTestPanel(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"success":true}`))
	})

	require.NoError(t, panel.UpdateClient(context.Background(), 1, "uuid-1", Client{Email: "42"}))
	assert.Equal(t, "/panel/api/inbounds/updateClient/uuid-1", gotPath)
}

func TestRequestFailure(t *testing.T) {
	panel := newTestPanel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"msg":"client exists"}`))
	})

	err := panel.AddClient(context.Background(), 1, Client{Email: "42"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client exists")
}
