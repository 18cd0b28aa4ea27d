package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ValentinKolb/dArray/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	for name, want := range map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"error":   logger.ERROR,
	} {
		got, err := ParseLogLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
	assert.Error(t, InitLoggers(""))
}

func TestParseServerShardType(t *testing.T) {
	typ, err := ParseServerShardType(" lstore ")
	require.NoError(t, err)
	assert.Equal(t, ShardTypeLocalIStore, typ)

	typ, err = ParseServerShardType("dstore")
	require.NoError(t, err)
	assert.Equal(t, ShardTypeRemoteIStore, typ)

	_, err = ParseServerShardType("memcache")
	assert.Error(t, err)
}

func TestHasRemoteShard(t *testing.T) {
	c := ServerConfig{Shards: []ServerShard{{ShardID: 1, Type: ShardTypeLocalIStore}}}
	assert.False(t, c.HasRemoteShard())

	c.Shards = append(c.Shards, ServerShard{ShardID: 2, Type: ShardTypeRemoteIStore})
	assert.True(t, c.HasRemoteShard())
	assert.Contains(t, c.String(), "RAFT PARAMETERS")
}

func TestMessageErrors(t *testing.T) {
	assert.NoError(t, NewSetResponse(nil).AsError())

	// store errors keep their code
	tooLarge := store.NewError(store.RetCValueTooLarge, "value too large")
	resp := NewSetResponse(fmt.Errorf("wrapped: %w", tooLarge))
	assert.Equal(t, store.RetCValueTooLarge, resp.Code)
	assert.True(t, store.IsValueTooLarge(resp.AsError()))

	// other errors are reported as internal errors
	resp = NewDeleteResponse(errors.New("boom"))
	assert.Equal(t, store.RetCInternalError, resp.Code)
	assert.Equal(t, store.RetCInternalError, store.CodeOf(resp.AsError()))

	// protocol errors carry no code
	err := NewErrorResponse("shard not found").AsError()
	require.Error(t, err)
	assert.Equal(t, "shard not found", err.Error())
}

func TestNewKeysResponse(t *testing.T) {
	resp := NewKeysResponse(nil, nil)
	assert.NotNil(t, resp.Keys)
	assert.Empty(t, resp.Keys)

	resp = NewKeysResponse(nil, errors.New("boom"))
	assert.Nil(t, resp.Keys)
	assert.Equal(t, "boom", resp.Err)
}

func TestMessageTypeJSON(t *testing.T) {
	for typ := MsgTSuccess; typ <= MsgTKVInfo; typ++ {
		data, err := typ.MarshalJSON()
		require.NoError(t, err)

		var decoded MessageType
		require.NoError(t, decoded.UnmarshalJSON(data))
		assert.Equal(t, typ, decoded)
	}

	var decoded MessageType
	assert.Error(t, decoded.UnmarshalJSON([]byte(`"acquire"`)))
}
