// Guards an image optimizer's HTTP handler so it never fetches from a non-allowlisted source
package imagegate

import (
	"context"
	"net/http"

	"github.com/function61/gokit/net/http/httputils"
)

const (
	// same as the framework's image endpoint: "/_image?url=...&w=...&q=..."
	UrlParam = "url"
)

// satisfied by *remotepattern.Set
type Admitter interface {
	IsAllowed(rawURL string) bool
}

type ctxKey int

const imageUrlKey ctxKey = iota

// wraps inner Handler with protection: it only gets called for admitted image URLs
func Protect(admitter Admitter, admittedHandler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		imageUrl := r.URL.Query().Get(UrlParam)
		if imageUrl == "" {
			http.Error(w, `"url" parameter is required`, http.StatusBadRequest)
			return
		}

		if !admitter.IsAllowed(imageUrl) {
			// a later config change could allow this URL, so don't let anyone cache the denial
			httputils.NoCacheHeaders(w)

			http.Error(w, `"url" parameter is not allowed`, http.StatusBadRequest)
			return
		}

		admittedHandler.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), imageUrlKey, imageUrl)))
	})
}

// ImageUrl returns the admitted image URL inside a handler wrapped by Protect()
func ImageUrl(r *http.Request) string {
	imageUrl, _ := r.Context().Value(imageUrlKey).(string)
	return imageUrl
}
