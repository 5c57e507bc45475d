package directory

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetPeers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/auth0%7C123/peers", r.URL.EscapedPath(), "principal phải được escape trong path")
		json.NewEncoder(w).Encode([]string{"bob", "carol"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	peers, err := c.GetPeers(context.Background(), "auth0|123")
	if err != nil {
		t.Fatalf("GetPeers: %v", err)
	}
	assert.Equal(t, []string{"bob", "carol"}, peers, "peers sai")
}

func TestGetPeers_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	_, err := c.GetPeers(context.Background(), "alice")
	assert.Error(t, err, "status 502 phải trả lỗi")
}

func TestGetProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/alice", r.URL.Path, "path sai")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"name": "Alice", "email": "alice@example.org", "loginsCount": 3,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	profile, err := c.GetProfile(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	assert.Equal(t, "Alice", profile.Name)
	assert.Equal(t, "alice@example.org", profile.Email)
	assert.Equal(t, int64(3), profile.LoginsCount)
}

func TestUpdateProfile(t *testing.T) {
	var gotMethod, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	if err := c.UpdateProfile(context.Background(), "alice", "Alice B"); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	assert.Equal(t, http.MethodPatch, gotMethod, "method phải là PATCH")

	var payload map[string]string
	if err := json.Unmarshal([]byte(gotBody), &payload); err != nil {
		t.Fatalf("body không phải JSON: %v", err)
	}
	assert.Equal(t, "Alice B", payload["name"], "payload sai")
}

func TestDeleteUser(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	if err := c.DeleteUser(context.Background(), "alice"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/users/alice", gotPath)
}
