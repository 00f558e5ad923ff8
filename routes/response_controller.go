package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

// answersRequest also accepts the older "responses" key for the answer list.
type answersRequest struct {
	Answers   []model.Answer `json:"answers"`
	Responses []model.Answer `json:"responses"`
}

func decodeAnswers(w http.ResponseWriter, r *http.Request) ([]model.Answer, bool) {
	req := answersRequest{}
	err := render.DecodeJSON(r.Body, &req)
	if err != nil {
		httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "invalid answers: %s", err)
		return nil, false
	}

	if req.Answers != nil {
		return req.Answers, true
	}
	return req.Responses, true
}

func SubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		answers, ok := decodeAnswers(w, r)
		if !ok {
			return
		}

		resp, err := app.SubmitResponse(r.Context(), middlewares.PrincipalFrom(r.Context()), chi.URLParam(r, "id"), answers)
		if err != nil {
			httpx.WriteError(w, r, "responses.submit", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message":  "Response submitted successfully",
			"response": resp,
		})
	}
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func ListResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := app.ListResponses(r.Context(), chi.URLParam(r, "id"), queryInt(r, "page"), queryInt(r, "limit"))
		if err != nil {
			httpx.WriteError(w, r, "responses.list", err)
			return
		}

		render.JSON(w, r, page)
	}
}

func UpdateResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		answers, ok := decodeAnswers(w, r)
		if !ok {
			return
		}

		resp, err := app.UpdateResponse(r.Context(), middlewares.PrincipalFrom(r.Context()), chi.URLParam(r, "id"), answers)
		if err != nil {
			httpx.WriteError(w, r, "responses.update", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message":  "Response updated successfully",
			"response": resp,
		})
	}
}

func DeleteResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := app.DeleteResponse(r.Context(), middlewares.PrincipalFrom(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			httpx.WriteError(w, r, "responses.delete", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "Response deleted successfully",
		})
	}
}
