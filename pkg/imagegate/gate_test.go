package imagegate

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/function61/gokit/testing/assert"
	"github.com/function61/remoteimage/pkg/remotepattern"
)

func TestProtect(t *testing.T) {
	patterns, err := remotepattern.NewSet([]remotepattern.AllowRule{
		{Scheme: "https", Host: "extrai.ia", PathPrefix: "/dashboard/**"},
	})
	assert.Ok(t, err)

	innerCalls := 0

	handler := Protect(patterns, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		innerCalls++

		fmt.Fprint(w, ImageUrl(r))
	}))

	serve := func(query string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_image"+query, nil))
		return rec
	}

	allowed := serve("?w=640&q=75&url=" + url.QueryEscape("https://extrai.ia/dashboard/chart.png"))
	assert.Equal(t, allowed.Code, http.StatusOK)
	assert.Equal(t, allowed.Body.String(), "https://extrai.ia/dashboard/chart.png")

	denied := serve("?url=" + url.QueryEscape("https://extrai.ia/admin/secret.png"))
	assert.Equal(t, denied.Code, http.StatusBadRequest)
	assert.Equal(t, strings.TrimSpace(denied.Body.String()), `"url" parameter is not allowed`)
	assert.Equal(t, denied.Header().Get("Cache-Control") != "", true)

	missing := serve("")
	assert.Equal(t, missing.Code, http.StatusBadRequest)
	assert.Equal(t, strings.TrimSpace(missing.Body.String()), `"url" parameter is required`)

	assert.Equal(t, innerCalls, 1)
}

func TestImageUrlOutsideProtect(t *testing.T) {
	assert.Equal(t, ImageUrl(httptest.NewRequest(http.MethodGet, "/", nil)), "")
}
