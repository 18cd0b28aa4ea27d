package server_test

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/dArray/lib/array"
	"github.com/ValentinKolb/dArray/lib/db"
	"github.com/ValentinKolb/dArray/lib/store"
	"github.com/ValentinKolb/dArray/rpc/client"
	"github.com/ValentinKolb/dArray/rpc/common"
	"github.com/ValentinKolb/dArray/rpc/serializer"
	"github.com/ValentinKolb/dArray/rpc/server"
	"github.com/ValentinKolb/dArray/rpc/transport"
	httpTransport "github.com/ValentinKolb/dArray/rpc/transport/http"
	"github.com/ValentinKolb/dArray/rpc/transport/tcp"
	"github.com/ValentinKolb/dArray/rpc/transport/unix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testShard = 100

// transportPair creates matching server and client transports
type transportPair struct {
	name     string
	endpoint func(t *testing.T) (server string, client string)
	server   func() transport.IRPCServerTransport
	client   func() transport.IRPCClientTransport
}

func freeTCPAddr(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

var transports = []transportPair{
	{
		name: "tcp",
		endpoint: func(t *testing.T) (string, string) {
			addr := freeTCPAddr(t)
			return addr, addr
		},
		server: tcp.NewTCPDefaultServerTransport,
		client: tcp.NewTCPClientTransport,
	},
	{
		name: "unix",
		endpoint: func(t *testing.T) (string, string) {
			path := filepath.Join(t.TempDir(), "darray.sock")
			return path, path
		},
		server: unix.NewUnixDefaultServerTransport,
		client: unix.NewUnixClientTransport,
	},
	{
		name: "http",
		endpoint: func(t *testing.T) (string, string) {
			addr := freeTCPAddr(t)
			return addr, "http://" + addr
		},
		server: httpTransport.NewHttpServerTransport,
		client: httpTransport.NewHttpClientTransport,
	},
}

// serverOptions modifies the server config of a test server
type serverOptions func(config *common.ServerConfig)

// testServer is a running server with a client connected to testShard
type testServer struct {
	store    store.IStore
	client   common.ClientConfig
	shutdown func() error
}

// startServer starts a server with a single local shard and returns a connected client store
func startServer(t *testing.T, tp transportPair, s func() serializer.IRPCSerializer, opts ...serverOptions) testServer {
	t.Helper()

	serverEndpoint, clientEndpoint := tp.endpoint(t)
	config := common.ServerConfig{
		Shards:        []common.ServerShard{{ShardID: testShard, Type: common.ShardTypeLocalIStore}},
		TimeoutSecond: 5,
		Transport:     common.ServerTransportConfig{Endpoint: serverEndpoint, WorkersPerConn: 4},
		LogLevel:      "error",
	}
	for _, opt := range opts {
		opt(&config)
	}

	srv := server.NewRPCServer(config, tp.server(), s())
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Shutdown() })

	clientConfig := common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:  []string{clientEndpoint},
			RetryCount: 3,
		},
	}

	var rpcStore store.IStore
	require.Eventually(t, func() bool {
		st, err := client.NewRPCStore(testShard, clientConfig, tp.client(), s())
		if err != nil {
			return false
		}
		if _, err := st.Has("ping"); err != nil {
			return false
		}
		rpcStore = st
		return true
	}, 5*time.Second, 20*time.Millisecond)

	return testServer{store: rpcStore, client: clientConfig, shutdown: srv.Shutdown}
}

func TestRPCStore(t *testing.T) {
	serializers := map[string]func() serializer.IRPCSerializer{
		"binary": serializer.NewBinarySerializer,
		"json":   serializer.NewJSONSerializer,
	}

	for _, tp := range transports {
		for sName, s := range serializers {
			t.Run(tp.name+"/"+sName, func(t *testing.T) {
				st := startServer(t, tp, s).store

				require.NoError(t, st.Set("list0", []byte(`["a"]`)))
				require.NoError(t, st.Set("list1", []byte(`["b"]`)))
				require.NoError(t, st.Set("other", []byte(`x`)))

				value, ok, err := st.Get("list0")
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, []byte(`["a"]`), value)

				_, ok, err = st.Get("missing")
				require.NoError(t, err)
				assert.False(t, ok)

				ok, err = st.Has("list1")
				require.NoError(t, err)
				assert.True(t, ok)

				keys, err := st.Keys("list")
				require.NoError(t, err)
				assert.ElementsMatch(t, []string{"list0", "list1"}, keys)

				keys, err = st.Keys("nothing")
				require.NoError(t, err)
				assert.Empty(t, keys)

				require.NoError(t, st.Delete("list0"))
				ok, err = st.Has("list0")
				require.NoError(t, err)
				assert.False(t, ok)

				info, err := st.GetDBInfo()
				require.NoError(t, err)
				assert.Equal(t, db.ImplMaple, info.DbType)
				assert.Equal(t, 2, info.KeyCount)
			})
		}
	}
}

func TestRPCStoreValueLimit(t *testing.T) {
	st := startServer(t, transports[0], serializer.NewBinarySerializer, func(c *common.ServerConfig) {
		c.MaxValueSize = 8
	}).store

	require.NoError(t, st.Set("small", []byte("12345678")))

	err := st.Set("large", []byte("123456789"))
	require.Error(t, err)
	assert.True(t, store.IsValueTooLarge(err), "the error code must survive the round trip: %v", err)

	var storeErr *store.Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, store.RetCValueTooLarge, storeErr.Code)

	ok, err := st.Has("large")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnknownShard(t *testing.T) {
	tp := transports[0]
	srv := startServer(t, tp, serializer.NewBinarySerializer)

	// a second client pointing at a shard the server does not host
	st, err := client.NewRPCStore(testShard+1, srv.client, tp.client(), serializer.NewBinarySerializer())
	require.NoError(t, err)

	err = st.Set("key", []byte("value"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.False(t, store.IsValueTooLarge(err))
}

func TestArrayOverRPC(t *testing.T) {
	st := startServer(t, transports[0], serializer.NewBinarySerializer, func(c *common.ServerConfig) {
		c.MaxValueSize = 32
	}).store

	// the shard size of the array is larger than the store limit, the store decides
	list, err := array.New[string](st, "names", &array.Options{MaxShardSize: 1024})
	require.NoError(t, err)

	var want []string
	for i := 0; i < 20; i++ {
		v := fmt.Sprintf("name-%02d", i)
		want = append(want, v)
		require.NoError(t, list.Add(v))
	}

	got, err := list.GetAll()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	shards, err := list.Shards()
	require.NoError(t, err)
	require.Greater(t, len(shards), 1)
	for _, shard := range shards {
		assert.LessOrEqual(t, shard.Bytes, 32)
	}

	// a fresh array instance reads the same content from the server
	reloaded, err := array.New[string](st, "names", &array.Options{MaxShardSize: 1024})
	require.NoError(t, err)
	got, err = reloaded.GetAll()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// elements that never fit are reported
	err = list.Add(strings.Repeat("x", 40))
	assert.ErrorIs(t, err, array.ErrElementTooLarge)

	require.NoError(t, list.Clear())
	size, err := reloaded.Size()
	require.NoError(t, err)
	assert.Equal(t, 20, size, "the second instance still serves its cache")
	reloaded.Unload()
	size, err = reloaded.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestServerSnapshots(t *testing.T) {
	dir := t.TempDir()
	withSnapshots := func(c *common.ServerConfig) { c.SnapshotDir = dir }

	first := startServer(t, transports[0], serializer.NewBinarySerializer, withSnapshots)
	require.NoError(t, first.store.Set("persisted", []byte("value")))
	require.NoError(t, first.shutdown())

	// restarting with the same directory restores the shard
	second := startServer(t, transports[0], serializer.NewBinarySerializer, withSnapshots)
	value, ok, err := second.store.Get("persisted")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("value"), value)
}

func TestMetricsEndpoint(t *testing.T) {
	addr := freeTCPAddr(t)
	st := startServer(t, transports[0], serializer.NewBinarySerializer, func(c *common.ServerConfig) {
		c.MetricsEndpoint = addr
	}).store
	require.NoError(t, st.Set("key", []byte("value")))

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil || resp.StatusCode != http.StatusOK {
			return false
		}
		body = string(data)
		return true
	}, 5*time.Second, 20*time.Millisecond)

	assert.Contains(t, body, fmt.Sprintf(`darray_rpc_requests_total{shard="%d",type="set"}`, testShard))
}
