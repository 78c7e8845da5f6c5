// Package matchstate indexes match outcomes in Redis so operators can see
// which event each job selected and how the other candidates scored.
package matchstate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"legistarevents/pkg/models"
)

// RedisConfig configures Redis access for match-state persistence.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// Record is one stored match outcome.
type Record struct {
	SourceID        string         `json:"source_id"`
	SelectedEventID string         `json:"selected_event_id,omitempty"`
	SelectedScore   int            `json:"selected_score"`
	Candidates      int            `json:"candidates"`
	Scores          map[string]int `json:"scores"`
	MatchedAt       time.Time      `json:"matched_at"`
}

// RecordFromResult summarizes a match result for storage.
func RecordFromResult(sourceID string, res models.MatchResult, at time.Time) Record {
	rec := Record{
		SourceID:   sourceID,
		Candidates: len(res.MatchScores),
		Scores:     res.MatchScores,
		MatchedAt:  at.UTC(),
	}
	if res.SelectedEvent != nil {
		rec.SelectedEventID = res.SelectedEvent.EventID.Key()
		rec.SelectedScore = res.MatchScores[rec.SelectedEventID]
	}
	return rec
}

// RedisStore writes and reads match records.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore constructs a Redis-backed match-state store.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = "legistar:match_state"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis match-state: %w", err)
	}

	return &RedisStore{client: client, prefix: strings.TrimSpace(cfg.KeyPrefix), ttl: cfg.TTL}, nil
}

// WriteRecords stores records in one pipeline. Each record replaces the
// previous score hash for its source.
func (s *RedisStore) WriteRecords(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()

	for _, rec := range records {
		source := strings.TrimSpace(rec.SourceID)
		if source == "" {
			continue
		}
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode match record: %w", err)
		}

		scoresKey := s.scoresKey(source)
		pipe.Del(ctx, scoresKey)
		if len(rec.Scores) > 0 {
			fields := make([]interface{}, 0, len(rec.Scores)*2)
			for id, score := range rec.Scores {
				fields = append(fields, id, strconv.Itoa(score))
			}
			pipe.HSet(ctx, scoresKey, fields...)
		}
		pipe.Set(ctx, s.latestKey(source), payload, s.ttl)
		if s.ttl > 0 {
			pipe.Expire(ctx, scoresKey, s.ttl)
		}
		pipe.ZAdd(ctx, s.recentSetKey(), redis.Z{Score: float64(rec.MatchedAt.Unix()), Member: source})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update match-state redis keys: %w", err)
	}
	return nil
}

// Latest returns the most recent record for a source.
func (s *RedisStore) Latest(ctx context.Context, sourceID string) (*Record, error) {
	data, err := s.client.Get(ctx, s.latestKey(sourceID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read match record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode match record: %w", err)
	}
	return &rec, nil
}

// Scores returns the stored score hash for a source.
func (s *RedisStore) Scores(ctx context.Context, sourceID string) (map[string]int, error) {
	hash, err := s.client.HGetAll(ctx, s.scoresKey(sourceID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read match scores: %w", err)
	}
	out := make(map[string]int, len(hash))
	for id, raw := range hash {
		score, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		out[id] = score
	}
	return out, nil
}

// FetchSince returns the latest record of every source matched at or after since,
// oldest first.
func (s *RedisStore) FetchSince(ctx context.Context, since time.Time, limit int64) ([]Record, error) {
	if limit <= 0 {
		limit = 1000
	}
	members, err := s.client.ZRangeByScore(ctx, s.recentSetKey(), &redis.ZRangeBy{
		Min:    fmt.Sprintf("%d", since.Unix()),
		Max:    "+inf",
		Offset: 0,
		Count:  limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent match sources: %w", err)
	}

	records := make([]Record, 0, len(members))
	for _, source := range members {
		rec, err := s.Latest(ctx, source)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

// Close closes Redis resources.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *RedisStore) scoresKey(source string) string {
	return s.prefix + ":scores:" + source
}

func (s *RedisStore) latestKey(source string) string {
	return s.prefix + ":latest:" + source
}

func (s *RedisStore) recentSetKey() string {
	return s.prefix + ":recent"
}
