package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"residency/internal/onboarding/models"
	id "residency/pkg/domain"
	"residency/pkg/platform/sentinel"
)

const (
	// Redis keys for session data
	sessionKeyPrefix = "onboarding:session:"
	emailKeyPrefix   = "onboarding:email:"
	// activeSetKey is a sorted set of non-terminal session ids scored by updatedAt (unix ms).
	activeSetKey = "onboarding:active"
)

// RedisStore persists sessions in Redis. CAS uses WATCH/MULTI: a concurrent
// write to the watched keys aborts the transaction with redis.TxFailedErr,
// reported as sentinel.ErrConflict.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed session store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) sessionKey(sessionID id.SessionID) string {
	return sessionKeyPrefix + sessionID.String()
}

func (s *RedisStore) emailKey(email string) string {
	return emailKeyPrefix + normalizeEmail(email)
}

func (s *RedisStore) Create(ctx context.Context, session *models.ApplicantSession) error {
	key := s.sessionKey(session.ID)
	emailKey := s.emailKey(session.Profile.Email)
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key, emailKey).Result()
		if err != nil {
			return fmt.Errorf("check session keys: %w", err)
		}
		if n > 0 {
			return sentinel.ErrDuplicate
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if holdsEmail(session) {
				pipe.Set(ctx, emailKey, session.ID.String(), 0)
				pipe.ZAdd(ctx, activeSetKey, redis.Z{Score: score(session.UpdatedAt), Member: session.ID.String()})
			}
			return nil
		})
		return err
	}, key, emailKey)
	if errors.Is(err, redis.TxFailedErr) {
		// Another writer claimed the id or the email between WATCH and EXEC.
		return sentinel.ErrDuplicate
	}
	return s.translate(err, "create session")
}

func (s *RedisStore) Load(ctx context.Context, sessionID id.SessionID) (*models.ApplicantSession, error) {
	session, err := s.get(ctx, s.client, s.sessionKey(sessionID))
	if err != nil {
		return nil, err
	}
	return session, nil
}

// CompareAndSwap writes session if the stored version is expectedVersion.
func (s *RedisStore) CompareAndSwap(ctx context.Context, session *models.ApplicantSession, expectedVersion int64) error {
	key := s.sessionKey(session.ID)
	newEmailKey := s.emailKey(session.Profile.Email)
	next := *session
	next.Version = expectedVersion + 1
	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := s.get(ctx, tx, key)
		if err != nil {
			return err
		}
		if stored.Version != expectedVersion {
			return sentinel.ErrConflict
		}
		oldEmailKey := s.emailKey(stored.Profile.Email)
		if holdsEmail(session) && newEmailKey != oldEmailKey {
			owner, err := tx.Get(ctx, newEmailKey).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return fmt.Errorf("check email owner: %w", err)
			}
			if err == nil && owner != session.ID.String() {
				return sentinel.ErrDuplicate
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if oldEmailKey != newEmailKey || !holdsEmail(session) {
				pipe.Del(ctx, oldEmailKey)
			}
			if holdsEmail(session) {
				pipe.Set(ctx, newEmailKey, session.ID.String(), 0)
				pipe.ZAdd(ctx, activeSetKey, redis.Z{Score: score(session.UpdatedAt), Member: session.ID.String()})
			} else {
				pipe.ZRem(ctx, activeSetKey, session.ID.String())
			}
			return nil
		})
		return err
	}, key, newEmailKey)
	if err := s.translate(err, "update session"); err != nil {
		return err
	}
	session.Version = next.Version
	return nil
}

func (s *RedisStore) FindActiveByEmail(ctx context.Context, email string) (*models.ApplicantSession, error) {
	owner, err := s.client.Get(ctx, s.emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session by email: %w", err)
	}
	sessionID, err := id.ParseSessionID(owner)
	if err != nil {
		return nil, fmt.Errorf("parse email owner: %w", err)
	}
	return s.Load(ctx, sessionID)
}

func (s *RedisStore) ListInactive(ctx context.Context, cutoff time.Time, limit int) ([]*models.ApplicantSession, error) {
	members, err := s.client.ZRangeByScore(ctx, activeSetKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "(" + strconv.FormatFloat(score(cutoff), 'f', 0, 64),
		Count: int64(limitOrDefault(limit)),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list inactive sessions: %w", err)
	}

	sessions := make([]*models.ApplicantSession, 0, len(members))
	for _, member := range members {
		sessionID, err := id.ParseSessionID(member)
		if err != nil {
			continue
		}
		session, err := s.Load(ctx, sessionID)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !session.IsTerminal() {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) get(ctx context.Context, c getter, key string) (*models.ApplicantSession, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var session models.ApplicantSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

func (s *RedisStore) translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return sentinel.ErrConflict
	case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrDuplicate), errors.Is(err, sentinel.ErrNotFound):
		return err
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}
