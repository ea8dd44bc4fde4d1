// Package services contains application services for the storefront client.
// This file persists the signed-in session so it survives restarts.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
)

// SessionStore keeps the token and user of the last login.
//
// Load returns (nil, nil) when nothing is stored. Save and Clear touch both
// keys in one transaction, so a half-written session is never observed.
type SessionStore interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s models.Session) error
	Clear(ctx context.Context) error
}

type sessionStore struct {
	db      *sql.DB
	newRepo func(dbx.DBTX) metadata.Repository
}

// NewSessionStore returns a SessionStore backed by the metadata table of db.
func NewSessionStore(db *sql.DB) SessionStore {
	return newSessionStore(db, func(q dbx.DBTX) metadata.Repository {
		return metadata.NewSQLiteRepository(q)
	})
}

func newSessionStore(db *sql.DB, newRepo func(dbx.DBTX) metadata.Repository) *sessionStore {
	return &sessionStore{db: db, newRepo: newRepo}
}

func (s *sessionStore) Load(ctx context.Context) (*models.Session, error) {
	repo := s.newRepo(s.db)

	token, err := repo.Get(ctx, common.TokenMetadataKey)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if len(token) == 0 {
		return nil, nil
	}

	session := &models.Session{Token: string(token)}

	rawUser, err := repo.Get(ctx, common.UserMetadataKey)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(rawUser) > 0 {
		if err := json.Unmarshal(rawUser, &session.User); err != nil {
			return nil, fmt.Errorf("decode stored user: %w", err)
		}
	}

	return session, nil
}

func (s *sessionStore) Save(ctx context.Context, session models.Session) error {
	rawUser, err := json.Marshal(session.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.newRepo(tx)
		if err := repo.Set(ctx, common.TokenMetadataKey, []byte(session.Token)); err != nil {
			return err
		}
		return repo.Set(ctx, common.UserMetadataKey, rawUser)
	})
}

func (s *sessionStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.newRepo(tx)
		if err := repo.Delete(ctx, common.TokenMetadataKey); err != nil {
			return err
		}
		return repo.Delete(ctx, common.UserMetadataKey)
	})
}
