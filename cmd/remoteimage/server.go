package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/function61/gokit/encoding/jsonfile"
	"github.com/function61/gokit/log/logex"
	"github.com/function61/remoteimage/pkg/appconfig"
	"github.com/function61/remoteimage/pkg/imagegate"
	"github.com/function61/remoteimage/pkg/imagetypes"
	"github.com/gorilla/mux"
)

func newHttpHandler(conf *appconfig.Config, logger *log.Logger) (http.Handler, error) {
	// compiled once, read-only from here on
	patterns, err := conf.RemotePatterns()
	if err != nil {
		return nil, err
	}

	logl := logex.Levels(logex.Prefix("server", logger))

	logl.Info.Printf("%d remote pattern(s) loaded", patterns.Len())

	decisions := newDecisionCache(patterns)

	router := mux.NewRouter()

	// the gate the image optimizer runs before fetching anything. fetching and transforming
	// happen downstream of us.
	router.Handle("/_image", imagegate.Protect(decisions, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		imageUrl := imagegate.ImageUrl(r)

		if rule, found := patterns.Match(imageUrl); found {
			logl.Debug.Printf("admitted %s by %s", imageUrl, rule)
		}

		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintln(w, imageUrl)
	}))).Methods(http.MethodGet)

	router.HandleFunc("/api/admission", func(w http.ResponseWriter, r *http.Request) {
		imageUrl := r.URL.Query().Get(imagegate.UrlParam)
		if imageUrl == "" {
			http.Error(w, `"url" parameter is required`, http.StatusBadRequest)
			return
		}

		decision := imagetypes.Decision{
			Url:     imageUrl,
			Allowed: decisions.IsAllowed(imageUrl),
		}

		if !decision.Allowed {
			logl.Debug.Printf("denied %s", imageUrl)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = jsonfile.Marshal(w, &decision)
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = conf.Write(w, appconfig.FormatJSON)
	}).Methods(http.MethodGet)

	return router, nil
}
