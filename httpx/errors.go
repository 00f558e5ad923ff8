package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/survey"
)

type ErrorBody struct {
	Message string `json:"message"`
}

// Status maps an error kind to its HTTP status.
func Status(err error) int {
	switch survey.KindOf(err) {
	case survey.KindValidation:
		return http.StatusBadRequest
	case survey.KindNotFound:
		return http.StatusNotFound
	case survey.KindPermission:
		return http.StatusForbidden
	case survey.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError logs err under code and answers with a JSON message. Internal
// failures never leak their cause to the client.
func WriteError(w http.ResponseWriter, r *http.Request, code string, err error) {
	status := Status(err)
	msg := err.Error()

	var serr *survey.Error
	if errors.As(err, &serr) && serr.Msg != "" {
		msg = serr.Msg
	}

	if status == http.StatusInternalServerError {
		log.Errorf("%s: %s", code, err)
		msg = http.StatusText(status)
	} else {
		log.Debugf("%s: %s", code, err)
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorBody{Message: msg})
}

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Errorf("%s: %s", code, err)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, ErrorBody{Message: http.StatusText(http.StatusInternalServerError)})
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string) {
	log.Log(level, code)
	render.Status(r, status)
	render.JSON(w, r, ErrorBody{Message: http.StatusText(status)})
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	render.Status(r, status)
	render.JSON(w, r, ErrorBody{Message: errMsg})
}
