// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
)

// store records received frames in redis: the last frame under <key>:last, a running count
// under <key>:count, and the most recent frames in the list <key>:log.
type store struct {
	db   *redis.Client
	key  string
	keep int
}

func newStore(conf RedisConfig) (*store, error) {
	db := redis.NewClient(&redis.Options{Addr: conf.Addr, DB: conf.DB})
	if err := db.Ping(context.Background()).Err(); err != nil {
		db.Close()
		return nil, err
	}
	return &store{db: db, key: conf.Key, keep: conf.Keep}, nil
}

// Record stores a received frame and returns the number of frames received so far.
func (s *store) Record(ctx context.Context, rx *RxFrame) (int64, error) {
	data, err := json.Marshal(rx)
	if err != nil {
		return 0, err
	}
	var count *redis.IntCmd
	_, err = s.db.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key+":last", data, 0)
		count = p.Incr(ctx, s.key+":count")
		if s.keep > 0 {
			p.LPush(ctx, s.key+":log", data)
			p.LTrim(ctx, s.key+":log", 0, int64(s.keep-1))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count.Val(), nil
}

func (s *store) Close() error { return s.db.Close() }
