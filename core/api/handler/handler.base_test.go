package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"

	"github.com/zimmerman-team/dx.server/core/api/dto"
	models "github.com/zimmerman-team/dx.server/core/api/models/mongodb"
)

// queryPagination chạy ParsePagination qua một request thật với query string cho trước
func queryPagination(t *testing.T, query string) (int64, int64) {
	t.Helper()

	var h BaseHandler[models.Dataset, dto.DatasetCreateInput, dto.DatasetUpdateInput]

	app := fiber.New()
	app.Get("/", func(c fiber.Ctx) error {
		page, limit := h.ParsePagination(c)
		return c.JSON(fiber.Map{"page": page, "limit": limit})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+query, nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)

	var out struct {
		Page  int64 `json:"page"`
		Limit int64 `json:"limit"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("body không phải JSON: %v", err)
	}
	return out.Page, out.Limit
}

func TestParsePagination(t *testing.T) {
	page, limit := queryPagination(t, "?page=3&limit=25")
	assert.Equal(t, int64(3), page)
	assert.Equal(t, int64(25), limit)
}

func TestParsePagination_Defaults(t *testing.T) {
	page, limit := queryPagination(t, "")
	assert.Equal(t, int64(1), page, "thiếu page phải mặc định 1")
	assert.Equal(t, int64(10), limit, "thiếu limit phải mặc định 10")
}

func TestParsePagination_InvalidValuesFallBack(t *testing.T) {
	page, limit := queryPagination(t, "?page=-2&limit=abc")
	assert.Equal(t, int64(1), page, "page âm phải về mặc định")
	assert.Equal(t, int64(10), limit, "limit không phải số phải về mặc định")
}
