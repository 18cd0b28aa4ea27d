// Package dstore implements store.IStore on top of a Dragonboat RAFT shard.
// Every node of the shard runs the state machine of this package over its own
// db.KVDB, so all replicas hold the same key space.
//
// Writes (Set, Delete) are serialized into an internal.Command and proposed
// with SyncPropose. The state machine applies them in log order and reports
// the store.RetCode in the result. Reads (Get, Has, Keys) use SyncRead and
// are linearizable; GetDBInfo uses StaleRead.
//
// Operations that fail with dragonboat.ErrSystemBusy are retried up to five
// times with a pause of a tenth of the timeout.
//
// The state machine is a concurrent one with fuzzy snapshots: SaveSnapshot
// streams db.KVDB.Save while updates continue, RecoverFromSnapshot calls
// db.KVDB.Load. After recovery the node replays the log entries committed
// since the snapshot.
//
// Usage:
//
//	nh, err := dragonboat.NewNodeHost(nodeHostConfig)
//	if err != nil { ... }
//
//	dbFactory := func() db.KVDB { return maple.NewMapleDB(nil) }
//	err = nh.StartConcurrentReplica(members, false,
//	    dstore.CreateStateMaschineFactory(dbFactory), shardConfig)
//	if err != nil { ... }
//
//	s := dstore.NewDistributedStore(nh, shardID, 5*time.Second)
//
// A raft entry holds a whole value, so hosts usually cap the value size. The
// server wraps each dstore shard with store.WithValueLimit and the sharded
// arrays of lib/array split their content into records that fit.
package dstore
