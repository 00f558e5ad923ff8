package app

import (
	"github.com/go-chi/oauth"
	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/survey"
)

type App struct {
	*survey.Service
	*oauth.BearerServer
	config.Config
}
