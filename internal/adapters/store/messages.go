// Package store persists sessions and chat messages in BadgerDB.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
)

// Open opens (or creates) the database under dir. Badger's own chatter is
// silenced; this process logs through zerolog only.
func Open(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	return badger.Open(opts)
}

// Messages is the durable chat log.
//
// The key is "msg:{room}:{timestamp_padded}:{uuid}": the 19-digit
// zero-padded unix-nano timestamp makes lexicographical order
// chronological, and the uuid disambiguates two messages landing on the
// same nanosecond.
type Messages struct {
	db *badger.DB
}

func NewMessages(db *badger.DB) *Messages {
	return &Messages{db: db}
}

var _ core.MessageStore = (*Messages)(nil)

func messageKey(roomID string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", roomID, at.UnixNano(), id))
}

func messagePrefix(roomID string) []byte {
	return []byte(fmt.Sprintf("msg:%s:", roomID))
}

func (s *Messages) Insert(ctx context.Context, roomID string, author *domain.Identity, body string, kind domain.MessageKind) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	msg := domain.Message{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		Author:    author,
		Body:      body,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(roomID, msg.CreatedAt, msg.ID), value)
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Query walks the room prefix in reverse to grab the newest entries, then
// flips the result so callers replay oldest-first.
func (s *Messages) Query(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var raw [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(roomID)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past every possible timestamp, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(raw) == limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	msgs := make([]domain.Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var m domain.Message
		if err := json.Unmarshal(raw[i], &m); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
