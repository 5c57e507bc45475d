package backend

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

func TestNotifyDatasetDuplication(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	renames := []DatasetRename{{DsName: "abc", NewDsName: "def"}}
	if err := c.NotifyDatasetDuplication(context.Background(), renames); err != nil {
		t.Fatalf("NotifyDatasetDuplication: %v", err)
	}

	assert.Equal(t, "/duplicate-datasets", gotPath, "path sai")

	var back []DatasetRename
	if err := json.Unmarshal([]byte(gotBody), &back); err != nil {
		t.Fatalf("body không phải JSON hợp lệ: %v", err)
	}
	assert.Len(t, back, 1, "payload phải có đúng 1 cặp rename")
	assert.Equal(t, "abc", back[0].DsName)
	assert.Equal(t, "def", back[0].NewDsName)
}

func TestNotifyDatasetDuplication_EmptyBatchSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	err := c.NotifyDatasetDuplication(context.Background(), nil)
	assert.NoError(t, err, "batch rỗng phải là no-op")
	assert.False(t, called, "batch rỗng không được gửi request")
}

func TestNotifyDatasetDuplication_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	err := c.NotifyDatasetDuplication(context.Background(), []DatasetRename{{DsName: "a", NewDsName: "b"}})
	assert.Error(t, err, "status 500 phải trả lỗi")
}

func TestDeleteDataset(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	if err := c.DeleteDataset(context.Background(), "64b0c1"); err != nil {
		t.Fatalf("DeleteDataset: %v", err)
	}
	assert.Equal(t, http.MethodPost, gotMethod, "method phải là POST")
	assert.Equal(t, "/delete-dataset/dx64b0c1", gotPath, "path phải có tiền tố dx trước id")
}
