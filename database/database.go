package database

import (
	"context"
	"strings"
	"time"

	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/survey"
)

// Store is everything the application persists: forms, responses,
// accounts and refresh-token bookkeeping.
type Store interface {
	survey.Store
	survey.UserStore

	StoreToken(ctx context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error
	ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string) (time.Time, error)

	Close() error
}

// Open connects to MongoDB when the URL has a mongodb scheme and to a
// SQLite file otherwise.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	if strings.HasPrefix(cfg.DBUrl, "mongodb://") || strings.HasPrefix(cfg.DBUrl, "mongodb+srv://") {
		store, err := OpenMongo(ctx, cfg.DBUrl, cfg.DBName)
		if err != nil {
			return nil, err
		}
		log.Infof("db.open: mongodb database %s", cfg.DBName)
		return store, nil
	}

	store, err := OpenSQLite(cfg.DBUrl)
	if err != nil {
		return nil, err
	}
	log.Infof("db.open: sqlite file %s", cfg.DBUrl)
	return store, nil
}
