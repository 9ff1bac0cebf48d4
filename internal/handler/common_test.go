package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func pageParamsFor(query string) (int, int) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return pageParams(e.NewContext(req, httptest.NewRecorder()))
}

func TestPageParams(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		page     int
		size     int
	}{
		{"defaults", "", 0, 10},
		{"explicit", "page=3&size=25", 3, 25},
		{"negative page floors to zero", "page=-4", 0, 10},
		{"size capped", "size=5000", 0, 100},
		{"huge page clamped", "page=9223372036854775807&size=100", maxPage, 100},
		{"overflowing page clamped", "page=99999999999999999999", maxPage, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, size := pageParamsFor(tc.query)
			assert.Equal(t, tc.page, page)
			assert.Equal(t, tc.size, size)
			assert.GreaterOrEqual(t, page*size, 0, "OFFSET must never go negative")
		})
	}
}
