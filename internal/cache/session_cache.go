package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"finhealth/internal/model"
)

// ErrSessionNotFound is returned for unknown or expired sessions
var ErrSessionNotFound = errors.New("session not found")

// SessionCache holds in-progress survey sessions. The session document and its answers live in
// separate keys so concurrent answers never overwrite each other.
type SessionCache interface {
	Create(ctx context.Context, session *model.SurveySession, ttl time.Duration) error
	Get(ctx context.Context, id string) (*model.SurveySession, error)
	SetAnswer(ctx context.Context, id, questionID string, value int) error
	MarkSubmitted(ctx context.Context, id, responseID string) (bool, error)
	ReleaseSubmit(ctx context.Context, id, responseID string) error
	Delete(ctx context.Context, id string) error
}

type sessionCache struct {
	client *redis.Client
}

func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{client: client}
}

// TTL reply for a key that does not exist
const keyMissing = time.Duration(-2)

func sessionKey(id string) string { return "session:" + id }
func answersKey(id string) string { return "session:" + id + ":answers" }
func submittedKey(id string) string { return "session:" + id + ":submitted" }

func (c *sessionCache) Create(ctx context.Context, session *model.SurveySession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), data, ttl)
	pipe.Del(ctx, answersKey(session.ID), submittedKey(session.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.SurveySession, error) {
	pipe := c.client.Pipeline()
	docCmd := pipe.Get(ctx, sessionKey(id))
	answersCmd := pipe.HGetAll(ctx, answersKey(id))
	submittedCmd := pipe.Get(ctx, submittedKey(id))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	data, err := docCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session model.SurveySession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}

	session.Answers = make(map[string]int)
	for questionID, raw := range answersCmd.Val() {
		if v, err := strconv.Atoi(raw); err == nil {
			session.Answers[questionID] = v
		}
	}
	if responseID, err := submittedCmd.Result(); err == nil {
		session.Status = model.SessionSubmitted
		session.ResponseID = responseID
	}
	return &session, nil
}

// SetAnswer records one answer and keeps the answers key alive as long as the session
func (c *sessionCache) SetAnswer(ctx context.Context, id, questionID string, value int) error {
	ttl, err := c.client.TTL(ctx, sessionKey(id)).Result()
	if err != nil {
		return err
	}
	if ttl == keyMissing {
		return ErrSessionNotFound
	}
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, answersKey(id), questionID, value)
	if ttl > 0 {
		pipe.Expire(ctx, answersKey(id), ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// MarkSubmitted claims the session for submission; it reports false if it was already submitted
func (c *sessionCache) MarkSubmitted(ctx context.Context, id, responseID string) (bool, error) {
	ttl, err := c.client.TTL(ctx, sessionKey(id)).Result()
	if err != nil {
		return false, err
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return c.client.SetNX(ctx, submittedKey(id), responseID, ttl).Result()
}

// releaseScript deletes the submit claim only while it still holds the given response id
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ReleaseSubmit drops a claim taken by MarkSubmitted so the session can be submitted again
func (c *sessionCache) ReleaseSubmit(ctx context.Context, id, responseID string) error {
	return releaseScript.Run(ctx, c.client, []string{submittedKey(id)}, responseID).Err()
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, sessionKey(id), answersKey(id), submittedKey(id)).Err()
}
