package namespace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const foafNS = "http://xmlns.com/foaf/0.1/"

func setupRegistry(t *testing.T, handler http.HandlerFunc) *SchemaWeb {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewSchemaWeb(server.URL)
}

func TestSchemaWeb_Lookup(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     string
		notFound bool
		wantErr  bool
	}{
		{
			name:   "location",
			status: http.StatusOK,
			body:   `<?xml version="1.0"?><location> http://xmlns.com/foaf/spec/index.rdf </location>`,
			want:   "http://xmlns.com/foaf/spec/index.rdf",
		},
		{
			name:     "registry error",
			status:   http.StatusOK,
			body:     `<error>Namespace not found</error>`,
			notFound: true,
		},
		{
			name:     "empty location",
			status:   http.StatusOK,
			body:     `<location/>`,
			notFound: true,
		},
		{
			name:    "unexpected element",
			status:  http.StatusOK,
			body:    `<html>oops</html>`,
			wantErr: true,
		},
		{
			name:    "malformed",
			status:  http.StatusOK,
			body:    `<location>`,
			wantErr: true,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery string
			resolver := setupRegistry(t, func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.Query().Get("namespace")
				assert.Equal(t, "/GetSchemaLocation.aspx", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := resolver.Lookup(context.Background(), foafNS)
			assert.Equal(t, foafNS, gotQuery)

			switch {
			case tt.notFound:
				assert.True(t, IsNotFound(err), "expected ErrNotFound, got %v", err)
			case tt.wantErr:
				require.Error(t, err)
				assert.False(t, IsNotFound(err))
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSchemaWeb_Resolve(t *testing.T) {
	t.Run("resolved", func(t *testing.T) {
		resolver := setupRegistry(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<location>http://example.org/schema.rdf</location>`))
		})
		assert.Equal(t, "http://example.org/schema.rdf", resolver.Resolve(context.Background(), foafNS))
	})

	t.Run("falls back and logs", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<error>unknown</error>`))
		}))
		defer server.Close()

		resolver := NewSchemaWeb(server.URL+"/", WithLogger(zap.New(core)))
		assert.Equal(t, foafNS, resolver.Resolve(context.Background(), foafNS))

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, "namespace resolution fell back to identifier", entry.Message)
		assert.Equal(t, foafNS, entry.ContextMap()["namespace"])
	})

	t.Run("unreachable registry", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		endpoint := server.URL
		server.Close()

		resolver := NewSchemaWeb(endpoint, WithTimeout(time.Second))
		assert.Equal(t, foafNS, resolver.Resolve(context.Background(), foafNS))
	})

	t.Run("slow registry", func(t *testing.T) {
		resolver := setupRegistry(t, func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		assert.Equal(t, foafNS, resolver.Resolve(ctx, foafNS))
	})
}

func TestIdentity(t *testing.T) {
	var r Resolver = Identity{}
	assert.Equal(t, foafNS, r.Resolve(context.Background(), foafNS))
}
