package httpapi

import (
	"bytes"
	"net/http"
	"strconv"

	"pbx-api/internal/cdr"
	"pbx-api/internal/export"
	"pbx-api/internal/telephony"
)

// CallsHandler pages through the CDR for a report period.
func CallsHandler(calls *cdr.Repository, tel *telephony.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period, page, size, err := parseCallsQuery(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		since := period.Since(tel.Now())
		res, err := calls.ListCalls(r.Context(), since, page, size)
		if err != nil {
			reportError(w, r, "calls", err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// CallsExportHandler streams every call of a period as a CSV or XLSX download.
func CallsExportHandler(calls *cdr.Repository, tel *telephony.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period, format, err := parseExportQuery(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		now := tel.Now()
		items, err := calls.ExportCalls(r.Context(), period.Since(now), cdr.MaxExportRows)
		if err != nil {
			reportError(w, r, "calls export", err)
			return
		}

		// Rendered up front so a failure can still produce a clean 500.
		var buf bytes.Buffer
		if err := export.Write(&buf, format, items); err != nil {
			reportError(w, r, "calls export", err)
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", `attachment; filename="`+format.FileName(string(period), now)+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}
