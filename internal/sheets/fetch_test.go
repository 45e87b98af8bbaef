package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("a,b\n1,2\n"))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	f := NewFetcher(5 * time.Second)
	ctx := context.Background()

	body, err := f.Fetch(ctx, server.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", body)

	_, err = f.Fetch(ctx, server.URL+"/missing")
	assert.ErrorIs(t, err, ErrFetch)

	_, err = f.Fetch(ctx, "")
	assert.ErrorIs(t, err, ErrFetch)
}

func TestFetchUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewFetcher(time.Second).Fetch(context.Background(), url)
	assert.ErrorIs(t, err, ErrFetch)
}
