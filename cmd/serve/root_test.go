package serve

import (
	"testing"

	"github.com/ValentinKolb/dArray/lib/db/util"
	"github.com/ValentinKolb/dArray/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShards(t *testing.T) {
	shards, err := parseShards("100=lstore, 200=dstore")
	require.NoError(t, err)
	assert.Equal(t, []common.ServerShard{
		{ShardID: 100, Type: common.ShardTypeLocalIStore},
		{ShardID: 200, Type: common.ShardTypeRemoteIStore},
	}, shards)

	for _, invalid := range []string{"100", "abc=lstore", "100=memcache", "100=lstore=x"} {
		_, err := parseShards(invalid)
		assert.Error(t, err, invalid)
	}
}

func TestParseClusterMembers(t *testing.T) {
	members, err := parseClusterMembers("node-1=localhost:63001,node-2=localhost:63002")
	require.NoError(t, err)
	assert.Len(t, members, 2)
	assert.Equal(t, "localhost:63001", members[uint64(util.HashString("node-1", 0))])

	_, err = parseClusterMembers("node-1")
	assert.Error(t, err)
}
