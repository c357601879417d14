package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pbx-api/internal/telephony"
)

func ExtensionsHandler(tel *telephony.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exts, err := tel.Extensions(r.Context())
		if err != nil {
			reportError(w, r, "extensions", err)
			return
		}
		writeJSON(w, http.StatusOK, exts)
	}
}

func TrunksHandler(tel *telephony.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trunks, err := tel.Trunks(r.Context())
		if err != nil {
			reportError(w, r, "trunks", err)
			return
		}
		writeJSON(w, http.StatusOK, trunks)
	}
}

func DashboardStatsHandler(tel *telephony.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := tel.DashboardStats(r.Context())
		if err != nil {
			reportError(w, r, "dashboard stats", err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func AdvancedDashboardHandler(tel *telephony.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period, err := parsePeriodQuery(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		stats, err := tel.AdvancedDashboard(r.Context(), period)
		if err != nil {
			reportError(w, r, "advanced dashboard", err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func IncomingRoutesHandler(tel *telephony.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		routes, err := tel.IncomingRoutes(r.Context())
		if err != nil {
			reportError(w, r, "incoming routes", err)
			return
		}
		writeJSON(w, http.StatusOK, routes)
	}
}

func IncomingRouteHandler(tel *telephony.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		route, err := tel.IncomingRoute(r.Context(), chi.URLParam(r, "number"))
		if err != nil {
			reportError(w, r, "incoming route", err)
			return
		}
		writeJSON(w, http.StatusOK, route)
	}
}

func IVRsHandler(tel *telephony.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ivrs, err := tel.IVRs(r.Context())
		if err != nil {
			reportError(w, r, "ivrs", err)
			return
		}
		writeJSON(w, http.StatusOK, ivrs)
	}
}
