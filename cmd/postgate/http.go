package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/postgatehq/postgate/approval"
	"github.com/postgatehq/postgate/workflow"
)

type requestBody struct {
	ActorID     string `json:"actor_id"`
	Instruction string `json:"instruction,omitempty"`
}

type decisionBody struct {
	ActorID string `json:"actor_id"`
	Option  string `json:"option"`
}

type apiResponse struct {
	Task    *approval.PendingTask `json:"task,omitempty"`
	Replies []workflow.Reply      `json:"replies,omitempty"`
	Error   string                `json:"error,omitempty"`
}

func newRouter(svc *workflow.Service, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/contexts/{contextID}/requests", handleRequest(svc, log))
		r.Get("/contexts/{contextID}/pending", handlePending(svc))
		r.Post("/contexts/{contextID}/decision", handleDecision(svc, log, false))
		r.Post("/tasks/{taskID}/decision", handleDecision(svc, log, true))
	})

	return r
}

func handleRequest(svc *workflow.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body requestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, apiResponse{Error: "invalid json body"})
			return
		}

		var replies []workflow.Reply
		cb := collectReplies(&replies)

		task, err := svc.Request(r.Context(), workflow.Request{
			ContextID:   chi.URLParam(r, "contextID"),
			ActorID:     body.ActorID,
			Instruction: body.Instruction,
		}, cb)
		switch {
		case errors.Is(err, workflow.ErrUnauthorized):
			writeJSON(w, http.StatusForbidden, apiResponse{Replies: replies, Error: "unauthorized"})
		case err != nil:
			log.Warn("request_error", "error", err.Error())
			writeJSON(w, http.StatusInternalServerError, apiResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusCreated, apiResponse{Task: &task, Replies: replies})
		}
	}
}

func handlePending(svc *workflow.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, ok, err := svc.Pending(r.Context(), chi.URLParam(r, "contextID"))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, apiResponse{Error: err.Error()})
			return
		}
		if !ok {
			writeJSON(w, http.StatusNotFound, apiResponse{Error: "no pending task"})
			return
		}
		writeJSON(w, http.StatusOK, apiResponse{Task: &task})
	}
}

func handleDecision(svc *workflow.Service, log *slog.Logger, byTask bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body decisionBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, apiResponse{Error: "invalid json body"})
			return
		}

		dec := workflow.Decision{
			ActorID: body.ActorID,
			Option:  body.Option,
		}
		if byTask {
			dec.TaskID = chi.URLParam(r, "taskID")
		} else {
			dec.ContextID = chi.URLParam(r, "contextID")
		}

		var replies []workflow.Reply
		err := svc.Decide(r.Context(), dec, collectReplies(&replies))
		switch {
		case errors.Is(err, workflow.ErrTaskNotFound):
			writeJSON(w, http.StatusNotFound, apiResponse{Error: "no pending task"})
		case errors.Is(err, workflow.ErrUnauthorized):
			writeJSON(w, http.StatusForbidden, apiResponse{Error: "unauthorized"})
		case errors.Is(err, workflow.ErrInvalidOption):
			writeJSON(w, http.StatusBadRequest, apiResponse{Replies: replies, Error: "invalid option"})
		case err != nil:
			// Execution failures: the decision was accepted but the platform
			// call failed; the replies explain what happened.
			log.Warn("decision_error", "error", err.Error())
			writeJSON(w, http.StatusBadGateway, apiResponse{Replies: replies, Error: err.Error()})
		default:
			writeJSON(w, http.StatusOK, apiResponse{Replies: replies})
		}
	}
}

func collectReplies(dst *[]workflow.Reply) workflow.Callback {
	return func(_ context.Context, reply workflow.Reply) error {
		*dst = append(*dst, reply)
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v apiResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
