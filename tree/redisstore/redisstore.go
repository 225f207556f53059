/*
Package redisstore implements a tree.NodeStore on a redis database.
Each node record is kept as a string value under "<prefix>:<id>".
*/
package redisstore

import (
	"context"
	"fmt"

	"github.com/pbanos/canopy/tree"
	"gopkg.in/redis.v5"
)

const idLength = 20

/*
NodeEncodeDecoder is an interface for objects
that allow encoding node records into slices of
bytes and decoding them back to node records.
*/
type NodeEncodeDecoder interface {
	Encode(*tree.NodeRecord) ([]byte, error)
	Decode([]byte) (*tree.NodeRecord, error)
}

type redisStore struct {
	rc      *redis.Client
	prefix  string
	nencdec NodeEncodeDecoder
}

// New builds a tree.NodeStore backed by a redis DB
func New(rc *redis.Client, prefix string, nencdec NodeEncodeDecoder) tree.NodeStore {
	return &redisStore{rc, prefix, nencdec}
}

/*
Open takes the address of a redis server, its password, the database number,
a key prefix and a NodeEncodeDecoder and returns a tree.NodeStore on a new
client for that database, or an error if the server cannot be reached.
*/
func Open(addr, password string, db int, prefix string, nencdec NodeEncodeDecoder) (tree.NodeStore, error) {
	rc := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rc.Ping().Err(); err != nil {
		rc.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %v", addr, err)
	}
	return &redisStore{rc, prefix, nencdec}, nil
}

func (rs *redisStore) Create(ctx context.Context, n *tree.NodeRecord) error {
	var ok bool
	for !ok {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n.ID = randString(idLength)
		data, err := rs.nencdec.Encode(n)
		if err != nil {
			return fmt.Errorf("creating node: encoding node: %v", err)
		}
		ok, err = rs.rc.SetNX(rs.keyFor(n.ID), data, 0).Result()
		if err != nil {
			return fmt.Errorf("creating node in redis: %v", err)
		}
	}
	return nil
}

func (rs *redisStore) Get(ctx context.Context, id string) (*tree.NodeRecord, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	data, err := rs.rc.Get(rs.keyFor(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving node %q: %v", id, err)
	}
	n, err := rs.nencdec.Decode([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("retrieving node %q: decoding %q: %v", id, data, err)
	}
	return n, nil
}

func (rs *redisStore) Store(ctx context.Context, n *tree.NodeRecord) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	redisID := rs.keyFor(n.ID)
	data, err := rs.nencdec.Encode(n)
	if err != nil {
		return fmt.Errorf("storing node %q: encoding node: %v", redisID, err)
	}
	_, err = rs.rc.Set(redisID, data, 0).Result()
	if err != nil {
		return fmt.Errorf("storing node %q in redis: %v", redisID, err)
	}
	return nil
}

func (rs *redisStore) Delete(ctx context.Context, n *tree.NodeRecord) error {
	redisID := rs.keyFor(n.ID)
	_, err := rs.rc.Del(redisID).Result()
	if err != nil {
		return fmt.Errorf("deleting node %q from redis: %v", redisID, err)
	}
	return nil
}

func (rs *redisStore) Close(ctx context.Context) error {
	return rs.rc.Close()
}

func (rs *redisStore) keyFor(id string) string {
	return fmt.Sprintf("%s:%s", rs.prefix, id)
}
