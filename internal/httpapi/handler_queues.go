package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"pbx-api/internal/apperr"
	"pbx-api/internal/models"
	"pbx-api/internal/queues"
)

type queueCreatedResponse struct {
	models.QueueName
	Message string `json:"message"`
}

type queueDeletedResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

func ListQueuesHandler(reg *queues.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := reg.List(r.Context())
		if err != nil {
			queueError(w, r, "list", err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetQueueHandler(reg *queues.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := reg.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			queueError(w, r, "get", err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func CreateQueueHandler(reg *queues.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := decodeQueueBody(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		q, err := reg.Create(r.Context(), name)
		if err != nil {
			queueError(w, r, "create", err)
			return
		}

		writeJSON(w, http.StatusCreated, queueCreatedResponse{QueueName: q, Message: "queue created"})
	}
}

func UpdateQueueHandler(reg *queues.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := decodeQueueBody(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		q, err := reg.Update(r.Context(), chi.URLParam(r, "id"), name)
		if err != nil {
			queueError(w, r, "update", err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func DeleteQueueHandler(reg *queues.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := reg.Delete(r.Context(), id); err != nil {
			queueError(w, r, "delete", err)
			return
		}
		writeJSON(w, http.StatusOK, queueDeletedResponse{Message: "queue deleted", ID: id})
	}
}

func decodeQueueBody(w http.ResponseWriter, r *http.Request) (string, error) {
	defer r.Body.Close()

	var body queueBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(&body); err != nil {
		return "", errors.New("invalid body")
	}
	if err := validateStruct(body); err != nil {
		return "", err
	}
	// Names are stored as given; only an all-blank name is refused.
	if strings.TrimSpace(body.Queue) == "" {
		return "", fmt.Errorf("%w: queue is required", apperr.ErrInvalidInput)
	}
	return body.Queue, nil
}

// queueError writes the queue endpoints' error responses. Internal failures
// carry the underlying error text.
func queueError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "queue not found")
	case errors.Is(err, queues.ErrDuplicateName) && op == "update":
		writeError(w, http.StatusBadRequest, "another queue already uses that name")
	case errors.Is(err, apperr.ErrConflict):
		writeError(w, http.StatusBadRequest, "a queue with that name already exists")
	default:
		requestLogger(r).Error("queue operation failed", "op", op, "error", err)
		writeError(w, statusFor(err), "failed to "+op+" queue: "+err.Error())
	}
}
