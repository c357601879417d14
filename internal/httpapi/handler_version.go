package httpapi

import (
	"net/http"
)

const ServiceName = "pbx-api"

// Version is overridden at build time with -ldflags "-X pbx-api/internal/httpapi.Version=...".
var Version = "1.0.0"

type versionResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func VersionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, versionResponse{Name: ServiceName, Version: Version})
	}
}
