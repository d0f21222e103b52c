package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/function61/gokit/testing/assert"
	"github.com/function61/remoteimage/pkg/appconfig"
	"github.com/function61/remoteimage/pkg/imagetypes"
	"github.com/function61/remoteimage/pkg/remotepattern"
)

func TestImageEndpoint(t *testing.T) {
	handler := newTestHandler(t, appconfig.Default())

	for _, tc := range []struct {
		imageUrl       string
		expectedStatus int
		expectedBody   string
	}{
		{"https://extrai.ia/dashboard/foo/bar.png", http.StatusOK, "https://extrai.ia/dashboard/foo/bar.png"},
		{"http://extrai.ia/dashboard/foo.png", http.StatusBadRequest, `"url" parameter is not allowed`},
		{"https://extrai.ia/other/foo.png", http.StatusBadRequest, `"url" parameter is not allowed`},
		{"not a url", http.StatusBadRequest, `"url" parameter is not allowed`},
		{"", http.StatusBadRequest, `"url" parameter is required`},
	} {
		t.Run(tc.imageUrl, func(t *testing.T) {
			rec := get(handler, "/_image?w=640&q=75&url="+url.QueryEscape(tc.imageUrl))

			assert.Equal(t, rec.Code, tc.expectedStatus)
			assert.Equal(t, strings.TrimSpace(rec.Body.String()), tc.expectedBody)
		})
	}
}

func TestAdmissionEndpoint(t *testing.T) {
	handler := newTestHandler(t, appconfig.Default())

	allowed := get(handler, "/api/admission?url="+url.QueryEscape("https://extrai.ia/dashboard/a.png"))
	assert.Equal(t, allowed.Code, http.StatusOK)
	assert.Equal(t, allowed.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, decodeDecision(t, allowed), imagetypes.Decision{
		Url:     "https://extrai.ia/dashboard/a.png",
		Allowed: true,
	})

	denied := get(handler, "/api/admission?url="+url.QueryEscape("https://extrai.ia:8443/admin"))
	assert.Equal(t, denied.Code, http.StatusOK)
	assert.Equal(t, decodeDecision(t, denied), imagetypes.Decision{
		Url:     "https://extrai.ia:8443/admin",
		Allowed: false,
	})

	missing := get(handler, "/api/admission")
	assert.Equal(t, missing.Code, http.StatusBadRequest)
}

func TestAdmissionDenialIsNotLoggedAtInfo(t *testing.T) {
	logOutput := &bytes.Buffer{}

	handler, err := newHttpHandler(appconfig.Default(), log.New(logOutput, "", 0))
	assert.Ok(t, err)

	logOutput.Reset() // drop startup lines

	get(handler, "/api/admission?url="+url.QueryEscape("https://attacker.example.com/a.png"))

	assert.Equal(t, strings.Contains(logOutput.String(), "[INFO]"), false)
}

func TestConfigEndpoint(t *testing.T) {
	rec := get(newTestHandler(t, appconfig.Default()), "/api/config")

	assert.Equal(t, rec.Code, http.StatusOK)

	conf, err := appconfig.Parse(rec.Body, appconfig.FormatJSON)
	assert.Ok(t, err)
	assert.Equal(t, conf.Output, appconfig.OutputStandalone)
	assert.Equal(t, conf.Images.RemotePatterns[0].PathPrefix, "/dashboard/**")
}

func TestEmptyAllowlistDeniesEverything(t *testing.T) {
	handler := newTestHandler(t, &appconfig.Config{})

	rec := get(handler, "/_image?url="+url.QueryEscape("https://extrai.ia/dashboard/a.png"))
	assert.Equal(t, rec.Code, http.StatusBadRequest)
}

func TestInvalidRuleRefusesToStart(t *testing.T) {
	_, err := newHttpHandler(&appconfig.Config{
		Images: appconfig.Images{
			RemotePatterns: []remotepattern.AllowRule{
				{Scheme: "https", Host: "*"},
			},
		},
	}, discardLogger())

	assert.Equal(t, err.Error(), `remotePatterns[0] (https://*): invalid hostname: "*": only a single leading '*.' label is supported`)
}

func newTestHandler(t *testing.T, conf *appconfig.Config) http.Handler {
	t.Helper()

	handler, err := newHttpHandler(conf, discardLogger())
	assert.Ok(t, err)

	return handler
}

func get(handler http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeDecision(t *testing.T, rec *httptest.ResponseRecorder) imagetypes.Decision {
	t.Helper()

	decision := imagetypes.Decision{}
	assert.Ok(t, json.Unmarshal(rec.Body.Bytes(), &decision))

	return decision
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
