package dstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/dArray/lib/db"
	"github.com/ValentinKolb/dArray/lib/store"
	"github.com/ValentinKolb/dArray/lib/store/dstore/internal"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/client"
	"github.com/lni/dragonboat/v4/logger"
	sm "github.com/lni/dragonboat/v4/statemachine"
)

var (
	retries = 5
	log     = logger.GetLogger("store")
)

// storeImpl is the raft backed implementation of the store.IStore interface.
// It encapsulates a Dragonboat NodeHost which is used to communicate with the state machine.
type storeImpl struct {
	nh      *dragonboat.NodeHost
	shardID uint64
	cs      *client.Session
	timeout time.Duration
}

// NewDistributedStore creates a new distributed store instance which uses raft consensus to ensure strict linearizability
// across multiple nodes.
func NewDistributedStore(nh *dragonboat.NodeHost, shardID uint64, timeout time.Duration) store.IStore {
	cs := nh.GetNoOPSession(shardID)
	return &storeImpl{
		nh:      nh,
		shardID: shardID,
		cs:      cs,
		timeout: timeout,
	}
}

// --------------------------------------------------------------------------
// Internal write and read operations (used by interface methods)
// --------------------------------------------------------------------------

// retryBusy runs op with a fresh timeout context until it does not fail with
// dragonboat.ErrSystemBusy, at most retries times. Other errors are converted
// to *store.Error.
func retryBusy[R any](s *storeImpl, name string, op func(ctx context.Context) (R, error)) (R, error) {
	var zero R
	for i := 0; i < retries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		res, err := op(ctx)
		cancel()

		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("%s on shard %d: system busy, retrying (%d/%d)...", name, s.shardID, i+1, retries)
			time.Sleep(s.timeout / 10)
			continue
		}
		if err != nil {
			var storeErr *store.Error
			if errors.As(err, &storeErr) {
				return zero, storeErr
			}
			return zero, store.NewError(store.RetCInternalError, err.Error())
		}
		return res, nil
	}
	return zero, store.NewError(store.RetCInternalError, fmt.Sprintf("%s on shard %d: system busy after %d attempts", name, s.shardID, retries))
}

// write proposes a serialized Command via SyncPropose.
// The state machine reports the store.RetCode in the result value and the message in the result data.
func (s *storeImpl) write(cmd internal.Command) error {
	res, err := retryBusy(s, "SyncPropose", func(ctx context.Context) (sm.Result, error) {
		return s.nh.SyncPropose(ctx, s.cs, cmd.Serialize())
	})
	if err != nil {
		return err
	}
	if res.Value != uint64(store.RetCSuccess) {
		return store.NewError(store.RetCode(res.Value), string(res.Data))
	}
	return nil
}

// read queries the state machine and converts the response into R.
//
// SyncRead is used by default. If linearizability is not required, stale can
// be set to use the faster StaleRead.
func read[R any](s *storeImpl, q internal.Query, stale bool) (R, error) {
	var zero R
	res, err := retryBusy(s, "SyncRead", func(ctx context.Context) (interface{}, error) {
		if stale {
			return s.nh.StaleRead(s.shardID, q)
		}
		return s.nh.SyncRead(ctx, s.shardID, q)
	})
	if err != nil {
		return zero, err
	}

	// The state machine is expected to return the response in the expected type R.
	casted, ok := res.(R)
	if !ok {
		return zero, store.NewError(store.RetCInternalError,
			fmt.Sprintf("unexpected type: received %T, expected %T", res, zero))
	}
	return casted, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docs see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	return s.write(internal.Command{
		Type:  internal.CommandTSet,
		Key:   key,
		Value: value,
	})
}

func (s *storeImpl) Delete(key string) error {
	return s.write(
		internal.Command{
			Type: internal.CommandTDelete,
			Key:  key,
		},
	)
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	res, err := read[internal.QueryResult](s, internal.Query{
		Type: internal.QueryTGet,
		Key:  key,
	}, false)
	if err != nil {
		return nil, false, err
	}
	return res.Value, res.Ok, nil
}

func (s *storeImpl) Has(key string) (bool, error) {
	return read[bool](s, internal.Query{
		Type: internal.QueryTHas,
		Key:  key,
	}, false)
}

func (s *storeImpl) Keys(prefix string) ([]string, error) {
	return read[[]string](s, internal.Query{
		Type: internal.QueryTKeys,
		Key:  prefix,
	}, false)
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return read[db.DatabaseInfo](
		s,
		internal.Query{
			Type: internal.QueryTGetDBInfo,
		},
		true, // Note: allow for stale reads
	)
}
