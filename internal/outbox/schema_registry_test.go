package outbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureSchemaReturnsLatestVersion(t *testing.T) {
	var posted bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posted = true
		}
		require.Equal(t, "/subjects/mealplan_events-value/versions/latest", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":12,"version":3}`))
	}))
	defer srv.Close()

	id, err := NewSchemaRegistryClient(srv.URL+"/").EnsureSchema(context.Background(), "mealplan_events-value", mealPlanGeneratedSchema)
	require.NoError(t, err)
	require.Equal(t, 12, id)
	require.False(t, posted)
}

func TestEnsureSchemaRegistersMissingSubject(t *testing.T) {
	var registered map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error_code":40401}`))
		case http.MethodPost:
			require.Equal(t, "/subjects/mealplan_events-value/versions", r.URL.Path)
			require.Equal(t, "application/vnd.schemaregistry.v1+json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&registered))
			_, _ = w.Write([]byte(`{"id":31}`))
		}
	}))
	defer srv.Close()

	id, err := NewSchemaRegistryClient(srv.URL).EnsureSchema(context.Background(), "mealplan_events-value", mealPlanGeneratedSchema)
	require.NoError(t, err)
	require.Equal(t, 31, id)
	require.Equal(t, "JSON", registered["schemaType"])
	require.Equal(t, mealPlanGeneratedSchema, registered["schema"])
}

func TestEnsureSchemaSurfacesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`boom`))
	}))
	defer srv.Close()

	_, err := NewSchemaRegistryClient(srv.URL).EnsureSchema(context.Background(), "mealplan_events-value", mealPlanGeneratedSchema)
	require.ErrorContains(t, err, "status 500")
}
