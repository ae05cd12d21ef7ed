package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestDefaults(t *testing.T) {
	tests := []struct {
		name     string
		in       PageRequest
		wantPage int
		wantSize int
	}{
		{"zero values", PageRequest{}, 1, DefaultPageSize},
		{"kept", PageRequest{Page: 3, PageSize: 50}, 3, 50},
		{"negative", PageRequest{Page: -2, PageSize: -1}, 1, DefaultPageSize},
		{"clamped", PageRequest{Page: 1, PageSize: 1000}, 1, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Defaults()
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantSize, p.PageSize)
		})
	}
}

func TestOffset(t *testing.T) {
	p := PageRequest{Page: 3, PageSize: 20}
	assert.Equal(t, 40, p.Offset())
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse([]string(nil), 1, 20, 41)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
	assert.Equal(t, 3, resp.TotalPages)

	last := NewPageResponse([]string{"a"}, 3, 20, 41)
	assert.Equal(t, 3, last.Page)

	empty := NewPageResponse([]int{}, 1, 20, 0)
	assert.Equal(t, 0, empty.TotalPages)
}
