// Package redis stores scenario documents in Redis.
//
// Each scenario is a hash at planner:scenario:<id> with name, version,
// document and updated_at fields. A sorted set indexes ids by update time
// so List is a single ZREVRANGE plus one pipelined read.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/warp/staffing-planner/factory"
	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/simulation"
)

const (
	scenarioKeyPrefix = "planner:scenario:"
	scenarioIndexKey  = "planner:scenarios"

	maxSaveAttempts = 5
)

var ErrSaveConflict = errors.New("scenario changed concurrently")

type ScenarioRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewScenarioRepository(client *redis.Client) *ScenarioRepository {
	return &ScenarioRepository{
		client: client,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func scenarioKey(id generic.ScenarioID) string {
	return scenarioKeyPrefix + string(id)
}

// Save writes the document with the next version. The read of the current
// version and the write are guarded by WATCH and retried on conflict.
func (r *ScenarioRepository) Save(ctx context.Context, sc simulation.Scenario) (simulation.Summary, error) {
	key := scenarioKey(sc.ID)

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		var saved simulation.Scenario
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.HGet(ctx, key, "version").Int()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}

			saved = sc
			saved.Version = current + 1
			saved.UpdatedAt = r.now()
			doc, err := factory.EncodeScenario(saved)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key,
					"name", saved.Name,
					"version", saved.Version,
					"document", doc,
					"updated_at", saved.UpdatedAt.Format(time.RFC3339Nano),
				)
				pipe.ZAdd(ctx, scenarioIndexKey, redis.Z{
					Score:  float64(saved.UpdatedAt.UnixMilli()),
					Member: string(saved.ID),
				})
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return simulation.Summary{}, fmt.Errorf("save scenario %s: %w", sc.ID, err)
		}
		return saved.Summary(), nil
	}
	return simulation.Summary{}, fmt.Errorf("save scenario %s: %w", sc.ID, ErrSaveConflict)
}

func (r *ScenarioRepository) Load(ctx context.Context, id generic.ScenarioID) (simulation.Scenario, error) {
	doc, err := r.client.HGet(ctx, scenarioKey(id), "document").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return simulation.Scenario{}, generic.ErrScenarioNotFound
		}
		return simulation.Scenario{}, err
	}
	return factory.DecodeScenario(id, doc)
}

// List returns summaries, most recently updated first.
func (r *ScenarioRepository) List(ctx context.Context) ([]simulation.Summary, error) {
	ids, err := r.client.ZRevRange(ctx, scenarioIndexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []simulation.Summary{}, nil
	}

	cmds := make([]*redis.SliceCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HMGet(ctx, scenarioKey(generic.ScenarioID(id)), "name", "version", "updated_at")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]simulation.Summary, 0, len(ids))
	for i, cmd := range cmds {
		vals := cmd.Val()
		if len(vals) != 3 || vals[0] == nil {
			// Index entry without a hash: skip it.
			continue
		}
		sum := simulation.Summary{ID: generic.ScenarioID(ids[i])}
		sum.Name, _ = vals[0].(string)
		if v, ok := vals[1].(string); ok {
			sum.Version, _ = strconv.Atoi(v)
		}
		if v, ok := vals[2].(string); ok {
			sum.UpdatedAt, _ = time.Parse(time.RFC3339Nano, v)
		}
		out = append(out, sum)
	}
	return out, nil
}

// Delete removes a scenario and its index entry.
func (r *ScenarioRepository) Delete(ctx context.Context, id generic.ScenarioID) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, scenarioKey(id))
		pipe.ZRem(ctx, scenarioIndexKey, string(id))
		return nil
	})
	return err
}
