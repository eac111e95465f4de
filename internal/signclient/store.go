package signclient

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-redis/redis/v8"
	"solwc.io/wallet-adapter/pkg/errors"
)

// SessionStore persists settled sessions so later Find calls can
// resume them without a fresh pairing.
type SessionStore interface {
	Put(ctx context.Context, session *Session) error
	List(ctx context.Context) ([]*Session, error)
	Delete(ctx context.Context, topic string) error
}

type memoryStore struct {
	mu       sync.Mutex
	order    []string
	sessions map[string]*Session
}

// NewMemoryStore keeps sessions for the lifetime of the process, in
// insertion order.
func NewMemoryStore() SessionStore {
	return &memoryStore{sessions: make(map[string]*Session)}
}

func (s *memoryStore) Put(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.Topic]; !ok {
		s.order = append(s.order, session.Topic)
	}
	s.sessions[session.Topic] = session
	return nil
}

func (s *memoryStore) List(_ context.Context) ([]*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := make([]*Session, 0, len(s.order))
	for _, topic := range s.order {
		sessions = append(sessions, s.sessions[topic])
	}
	return sessions, nil
}

func (s *memoryStore) Delete(_ context.Context, topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[topic]; !ok {
		return nil
	}
	delete(s.sessions, topic)
	for i, t := range s.order {
		if t == topic {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

const redisSessionKey = "signclient:sessions"

type redisStore struct {
	rdb *redis.Client
}

// NewRedisStore persists sessions in a redis list so they survive
// restarts of the host application.
func NewRedisStore(rdb *redis.Client) SessionStore {
	return &redisStore{rdb: rdb}
}

func (s *redisStore) Put(ctx context.Context, session *Session) error {
	if err := s.Delete(ctx, session.Topic); err != nil {
		return err
	}
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "marshal session")
	}
	if err := s.rdb.RPush(ctx, redisSessionKey, data).Err(); err != nil {
		return errors.WrapAndReport(err, "persist session")
	}
	return nil
}

func (s *redisStore) List(ctx context.Context) ([]*Session, error) {
	raw, err := s.rdb.LRange(ctx, redisSessionKey, 0, -1).Result()
	if err != nil {
		return nil, errors.WrapAndReport(err, "list sessions")
	}
	sessions := make([]*Session, 0, len(raw))
	for _, item := range raw {
		var session Session
		if err := json.Unmarshal([]byte(item), &session); err != nil {
			return nil, errors.Wrap(err, "unmarshal session")
		}
		sessions = append(sessions, &session)
	}
	return sessions, nil
}

func (s *redisStore) Delete(ctx context.Context, topic string) error {
	sessions, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if session.Topic != topic {
			continue
		}
		data, err := json.Marshal(session)
		if err != nil {
			return errors.Wrap(err, "marshal session")
		}
		if err := s.rdb.LRem(ctx, redisSessionKey, 1, data).Err(); err != nil {
			return errors.WrapAndReport(err, "remove session")
		}
	}
	return nil
}
