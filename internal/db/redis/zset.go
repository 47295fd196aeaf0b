package redis

import (
	"context"

	"github.com/lanefuse/lanefuse/internal/db"
)

// ZAdd stores members with scores in an ordered set.
func (s *Store) ZAdd(ctx context.Context, key string, members []db.ZMember) error {
	if len(members) == 0 {
		return nil
	}
	cmd := s.b().Zadd().Key(key).ScoreMember()
	for _, m := range members {
		cmd = cmd.ScoreMember(m.Score, m.Member)
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpZAdd, Err: err}
	}
	return nil
}

// ZRangeWithScores returns the full set ordered by descending score.
func (s *Store) ZRangeWithScores(ctx context.Context, key string) ([]db.ZMember, error) {
	cmd := s.b().Zrange().Key(key).Min("0").Max("-1").Rev().Withscores().Build()
	scores, err := s.do(ctx, cmd).AsZScores()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRange, Err: err}
	}
	out := make([]db.ZMember, len(scores))
	for i, z := range scores {
		out[i] = db.ZMember{Member: z.Member, Score: z.Score}
	}
	return out, nil
}

// ZCard returns the cardinality of an ordered set (0 for a missing key).
func (s *Store) ZCard(ctx context.Context, key string) (int64, error) {
	cmd := s.b().Zcard().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpZCard, Err: err}
	}
	return n, nil
}
