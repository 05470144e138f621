package sessionrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/GlebRadaev/clubledger/internal/domain"
	"go.uber.org/zap"
)

const (
	keyPrefix = "checkout:session:"
	activeKey = "checkout:sessions:active"

	// Resolved sessions are kept for inspection, then expire.
	resolvedTTL = 24 * time.Hour
)

type Repository struct {
	client redis.Cmdable
}

func New(client redis.Cmdable) *Repository {
	return &Repository{
		client: client,
	}
}

func sessionKey(externalID string) string {
	return keyPrefix + externalID
}

func (r *Repository) Save(ctx context.Context, session *domain.CheckoutSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, sessionKey(session.ExternalID), data, 0).Err(); err != nil {
		zap.L().Error("failed to save checkout session", zap.String("checkout_id", session.ExternalID), zap.Error(err))
		return err
	}
	if err := r.client.SAdd(ctx, activeKey, session.ExternalID).Err(); err != nil {
		zap.L().Error("failed to index checkout session", zap.String("checkout_id", session.ExternalID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, externalID string) (*domain.CheckoutSession, error) {
	data, err := r.client.Get(ctx, sessionKey(externalID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		zap.L().Error("failed to get checkout session", zap.String("checkout_id", externalID), zap.Error(err))
		return nil, err
	}

	var session domain.CheckoutSession
	if err := json.Unmarshal(data, &session); err != nil {
		zap.L().Error("failed to decode checkout session", zap.String("checkout_id", externalID), zap.Error(err))
		return nil, err
	}
	return &session, nil
}

// ListActive returns every unresolved session. Index entries whose session
// key has disappeared are dropped from the index.
func (r *Repository) ListActive(ctx context.Context) ([]domain.CheckoutSession, error) {
	ids, err := r.client.SMembers(ctx, activeKey).Result()
	if err != nil {
		zap.L().Error("failed to list active checkout sessions", zap.Error(err))
		return nil, err
	}

	sessions := make([]domain.CheckoutSession, 0, len(ids))
	for _, id := range ids {
		session, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if session == nil || session.Outcome != nil {
			if err := r.client.SRem(ctx, activeKey, id).Err(); err != nil {
				zap.L().Warn("failed to drop stale checkout session", zap.String("checkout_id", id), zap.Error(err))
			}
			continue
		}
		sessions = append(sessions, *session)
	}
	return sessions, nil
}

// Resolve stamps the outcome on the session and archives it.
func (r *Repository) Resolve(ctx context.Context, externalID string, outcome domain.Status, at time.Time) error {
	session, err := r.Get(ctx, externalID)
	if err != nil {
		return err
	}
	if session != nil {
		session.Outcome = &outcome
		session.ResolvedAt = &at
		data, err := json.Marshal(session)
		if err != nil {
			return err
		}
		if err := r.client.Set(ctx, sessionKey(externalID), data, resolvedTTL).Err(); err != nil {
			zap.L().Error("failed to archive checkout session", zap.String("checkout_id", externalID), zap.Error(err))
			return err
		}
	}
	if err := r.client.SRem(ctx, activeKey, externalID).Err(); err != nil {
		zap.L().Error("failed to unindex checkout session", zap.String("checkout_id", externalID), zap.Error(err))
		return err
	}
	return nil
}
