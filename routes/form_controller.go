package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/jinzhu/copier"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

type formRequest struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Fields      []model.FieldDefinition `json:"fields"`
}

func decodeForm(w http.ResponseWriter, r *http.Request) (form model.Form, ok bool) {
	req := formRequest{}
	err := render.DecodeJSON(r.Body, &req)
	if err != nil {
		httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "invalid form: %s", err)
		return
	}

	err = copier.Copy(&form, &req)
	if err != nil {
		httpx.LogInternalError(w, r, "request.copy_form", err)
		return
	}
	if req.Fields == nil {
		form.Fields = nil
	}
	return form, true
}

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := decodeForm(w, r)
		if !ok {
			return
		}

		created, err := app.CreateForm(r.Context(), middlewares.PrincipalFrom(r.Context()), form)
		if err != nil {
			httpx.WriteError(w, r, "forms.create", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message": "Form created successfully",
			"form":    created,
		})
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forms, err := app.ListForms(r.Context(), middlewares.PrincipalFrom(r.Context()))
		if err != nil {
			httpx.WriteError(w, r, "forms.list", err)
			return
		}
		if forms == nil {
			forms = []model.Form{}
		}

		render.JSON(w, r, forms)
	}
}

func GetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := app.GetForm(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.WriteError(w, r, "forms.get", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patch, ok := decodeForm(w, r)
		if !ok {
			return
		}

		updated, err := app.UpdateForm(r.Context(), middlewares.PrincipalFrom(r.Context()), chi.URLParam(r, "id"), patch)
		if err != nil {
			httpx.WriteError(w, r, "forms.update", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "Form updated successfully",
			"form":    updated,
		})
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := app.DeleteForm(r.Context(), middlewares.PrincipalFrom(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			httpx.WriteError(w, r, "forms.delete", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "Form and associated responses deleted successfully",
		})
	}
}

func FormResults(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := app.Results(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.WriteError(w, r, "forms.results", err)
			return
		}

		render.JSON(w, r, result)
	}
}
