package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
)

// Sessions is the durable session record. The presence core reads it;
// only the admin API writes it.
type Sessions struct {
	db *badger.DB
}

func NewSessions(db *badger.DB) *Sessions {
	return &Sessions{db: db}
}

var _ core.SessionStore = (*Sessions)(nil)

func sessionKey(id string) []byte {
	return []byte("session:" + id)
}

func (s *Sessions) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var sess domain.Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &sess)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, core.ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// PutSession upserts a session record.
func (s *Sessions) PutSession(ctx context.Context, sess *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(sess.ID), value)
	})
}
