package wordcloud

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestClient_Generate(t *testing.T) {
	encoded := pngBase64(t, 4, 3)
	requests := make(chan Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/generate-wordcloud", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests <- req
		_ = json.NewEncoder(w).Encode(map[string]string{"wordcloud": encoded})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", nil, nil)
	res, err := c.Generate(context.Background(), Request{
		Text:   "cat,cat,apple",
		Width:  600,
		Height: 400,
		Scale:  2,
		Colors: []string{"#000000"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Width)
	assert.Equal(t, 3, res.Height)
	assert.Equal(t, encoded, res.Base64)
	assert.Equal(t, "data:image/png;base64,"+encoded, res.DataURL())
	assert.NotEmpty(t, res.PNG)

	got := <-requests
	assert.Equal(t, Request{Text: "cat,cat,apple", Width: 600, Height: 400, Scale: 2, Colors: []string{"#000000"}}, got)
}

func TestClient_Generate_DefaultPalette(t *testing.T) {
	encoded := pngBase64(t, 1, 1)
	requests := make(chan Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests <- req
		_ = json.NewEncoder(w).Encode(map[string]string{"wordcloud": "data:image/png;base64," + encoded})
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, nil, nil).Generate(context.Background(), Request{Text: "a", Width: 300, Height: 300, Scale: 1})
	require.NoError(t, err)
	assert.Equal(t, encoded, res.Base64, "data URL prefix is stripped")
	assert.Equal(t, DefaultColors, (<-requests).Colors)
}

func TestClient_Generate_StatusError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil, nil).Generate(context.Background(), Request{Text: "a"})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Equal(t, "boom", statusErr.Body)
	assert.Contains(t, err.Error(), "503")
	assert.EqualValues(t, 1, calls.Load(), "no retry")
}

func TestClient_Generate_InvalidImage(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"not base64", "%%%"},
		{"not png", base64.StdEncoding.EncodeToString([]byte("GIF89a"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]string{"wordcloud": tt.payload})
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, nil, nil).Generate(context.Background(), Request{Text: "a"})
			assert.ErrorIs(t, err, ErrInvalidImage)
		})
	}
}

func TestClient_Generate_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil, nil).Generate(context.Background(), Request{Text: "a"})
	require.Error(t, err)
	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}
