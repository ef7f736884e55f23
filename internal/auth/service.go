package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/healthify/internal/telemetry/tracing"
	"github.com/2beens/healthify/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "healthify||session||"
	tokensSetKey     = "healthify||sessions"
	tokenLength      = 35
)

var ErrSessionNotFound = errors.New("session not found")

// Session is stored under sessionKeyPrefix + token.
type Session struct {
	UserID    int   `json:"userId"`
	CreatedAt int64 `json:"createdAt"`
}

type Service struct {
	redisClient *redis.Client
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewAuthService(
	ttl time.Duration,
	redisClient *redis.Client,
) *Service {
	return &Service{
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

// NewSession issues a token for an already authenticated user.
func (as *Service) NewSession(ctx context.Context, userID int, createdAt time.Time) (string, error) {
	token, err := as.RandStringFunc(tokenLength)
	if err != nil {
		return "", err
	}

	sessionJson, err := json.Marshal(Session{
		UserID:    userID,
		CreatedAt: createdAt.Unix(),
	})
	if err != nil {
		return "", err
	}

	if err := as.redisClient.Set(ctx, sessionKey(token), string(sessionJson), 0).Err(); err != nil {
		return "", err
	}

	// add token to list of sessions
	if err := as.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return "", err
	}

	return token, nil
}

// UserID resolves a session token to its user.
// Unknown and expired tokens give ErrSessionNotFound.
func (as *Service) UserID(ctx context.Context, token string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.userid")
	defer func() { tracing.EndSpan(span, err) }()

	if token == "" {
		return 0, ErrSessionNotFound
	}

	session, err := as.getSession(ctx, token)
	if err != nil {
		return 0, err
	}

	if time.Since(time.Unix(session.CreatedAt, 0)) > as.ttl {
		return 0, ErrSessionNotFound
	}

	span.SetAttributes(attribute.Int("user-id", session.UserID))
	return session.UserID, nil
}

func (as *Service) Logout(ctx context.Context, token string) (bool, error) {
	deleted, err := as.redisClient.Del(ctx, sessionKey(token)).Result()
	if err != nil {
		return false, err
	}

	// remove token from the list of sessions
	if err := as.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
		return false, err
	}

	return deleted > 0, nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (as *Service) ScanAndClean(ctx context.Context) {
	sessionTokens, err := as.redisClient.SMembers(ctx, tokensSetKey).Result()
	if err != nil {
		log.Errorf("!!! auth service, scan and clean, get sessions: %s", err)
		return
	}

	if len(sessionTokens) == 0 {
		log.Debugln("=> auth service, scan and clean abort, no sessions")
		return
	}

	log.Debugf("=> auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		session, err := as.getSession(ctx, token)
		if errors.Is(err, ErrSessionNotFound) {
			// dangling token
			toRemove = append(toRemove, token)
			continue
		}
		if err != nil {
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			continue
		}

		if time.Since(time.Unix(session.CreatedAt, 0)) > as.ttl {
			log.Debugf("=>\twill clean the session of user %d", session.UserID)
			toRemove = append(toRemove, token)
		}
	}

	for _, token := range toRemove {
		if _, err := as.Logout(ctx, token); err != nil {
			log.Errorf("=> auth service, clean token %s: %s", token, err)
		}
	}
}

// RunCleaner calls ScanAndClean every interval until ctx is done.
func (as *Service) RunCleaner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debugln("auth service, session cleaner stopped")
			return
		case <-ticker.C:
			as.ScanAndClean(ctx)
		}
	}
}

func (as *Service) getSession(ctx context.Context, token string) (*Session, error) {
	sessionJson, err := as.redisClient.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	session := &Session{}
	if err := json.Unmarshal(sessionJson, session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, nil
}
