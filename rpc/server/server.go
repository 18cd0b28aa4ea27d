package server

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dArray/lib/db"
	"github.com/ValentinKolb/dArray/lib/db/engines/maple"
	"github.com/ValentinKolb/dArray/lib/db/snapshot"
	"github.com/ValentinKolb/dArray/lib/store"
	"github.com/ValentinKolb/dArray/lib/store/dstore"
	"github.com/ValentinKolb/dArray/lib/store/lstore"
	"github.com/ValentinKolb/dArray/rpc/common"
	"github.com/ValentinKolb/dArray/rpc/serializer"
	"github.com/ValentinKolb/dArray/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the store it encapsulates and the adapter that handles
// requests for the store. Snapshots is set for local stores only.
type serverShard struct {
	Store     store.IStore
	Adapter   IRPCServerAdapter
	Snapshots lstore.Snapshotter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	// Create shards map
	shardMap := xsync.NewMapOf[uint64, serverShard]()

	// Create the RPC server
	return &rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     shardMap,
		listenErr:  make(chan error, 1),
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]

	nodeHost      *dragonboat.NodeHost
	metricsServer *http.Server
	listenErr     chan error

	shutdownOnce sync.Once
	shutdownErr  error
}

// --------------------------------------------------------------------------
// Request handling
// --------------------------------------------------------------------------

func (s *rpcServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(shardId uint64, req []byte) []byte {
		var msg common.Message
		var respMsg *common.Message

		// Get appropriate shard
		shard, ok := s.shards.Load(shardId)

		// Case shard does not exist -> error
		if !ok {
			respMsg = common.NewErrorResponse(fmt.Sprintf("shard %d not found", shardId))
		} else if err := s.serializer.Deserialize(req, &msg); err != nil {
			respMsg = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
		} else {
			// Let the adapter handle the request
			start := time.Now()
			respMsg = shard.Adapter.Handle(&msg, shard.Store)
			observeRequest(shardId, msg.MsgType, respMsg, start)
		}

		// Return result
		val, err := s.serializer.Serialize(*respMsg)
		if err != nil {
			Logger.Errorf("failed to serialize response: %v", err)
			val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
		}
		return val
	})
}

// observeRequest updates the request metrics of a shard
func observeRequest(shardId uint64, msgType common.MessageType, resp *common.Message, start time.Time) {
	labels := fmt.Sprintf(`{shard="%d",type=%q}`, shardId, msgType.String())
	metrics.GetOrCreateCounter("darray_rpc_requests_total" + labels).Inc()
	metrics.GetOrCreateHistogram("darray_rpc_request_duration_seconds" + labels).UpdateDuration(start)
	if resp.Err != "" {
		metrics.GetOrCreateCounter("darray_rpc_errors_total" + labels).Inc()
	}
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

func (s *rpcServer) init() error {

	// Function to create a new database instance
	dbFactory := func() db.KVDB { return maple.NewMapleDB(nil) }

	// Create the Dragonboat NodeHost
	if s.config.HasRemoteShard() {
		// Only create the NodeHost if we have remote shards
		nodeHost, err := dragonboat.NewNodeHost(s.config.ToNodeHostConfig())
		if err != nil {
			return fmt.Errorf("failed to create node host: %w", err)
		}
		s.nodeHost = nodeHost
	}

	// Configure the timeout for the distributed store
	timeout := time.Duration(s.config.TimeoutSecond) * time.Second

	// CREATE SHARDS

	/*
		Note: A single RPC Server can have any number of remote and or local shards.
		Every shard is wrapped with the configured value limit.
	*/

	for _, shardConfig := range s.config.Shards {
		var shard serverShard

		switch shardConfig.Type {
		case common.ShardTypeLocalIStore:
			local := lstore.NewLocalStore(dbFactory)
			shard.Store = local
			shard.Snapshots, _ = local.(lstore.Snapshotter)

			if err := s.restoreSnapshot(shardConfig.ShardID, shard.Snapshots); err != nil {
				return err
			}
			Logger.Infof("created local store for shard %d", shardConfig.ShardID)

		case common.ShardTypeRemoteIStore:
			if s.nodeHost == nil {
				return fmt.Errorf("node host is nil, cannot create remote store")
			}

			// Start Raft for the shard
			if err := s.nodeHost.StartConcurrentReplica(s.config.ClusterMembers, false, dstore.CreateStateMaschineFactory(dbFactory), s.config.ToDragonboatConfig(shardConfig.ShardID)); err != nil {
				Logger.Errorf("failed to start shard %v: %v", shardConfig.ShardID, err)
			}
			shard.Store = dstore.NewDistributedStore(s.nodeHost, shardConfig.ShardID, timeout)
			Logger.Infof("created distributed store for shard %d", shardConfig.ShardID)

		default:
			return fmt.Errorf("invalid shard type: %s", shardConfig.Type)
		}

		shard.Store = store.WithValueLimit(shard.Store, s.config.MaxValueSize)
		shard.Adapter = NewIStoreServerAdapter()
		s.shards.Store(shardConfig.ShardID, shard)
	}

	Logger.Infof("dArray setup completed successfully")

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// Start initializes the shards and starts the transport layer and the
// metrics endpoint in the background. Use Serve to block until shutdown.
func (s *rpcServer) Start() error {
	// Init logger
	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof("%s", s.config.String())

	if err := s.init(); err != nil {
		return err
	}

	if s.config.MetricsEndpoint != "" {
		s.startMetricsServer()
	}

	go func() {
		s.listenErr <- s.transport.Listen(s.config)
	}()
	return nil
}

// Serve starts the RPC server
// This function will also initialize the server plus the shards and start the transport layer.
// It blocks until the transport fails or SIGINT/SIGTERM is received, then shuts the server down.
func (s *rpcServer) Serve() error {
	if err := s.Start(); err != nil {
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case err := <-s.listenErr:
		if shutdownErr := s.Shutdown(); err == nil {
			err = shutdownErr
		}
		return err
	case sig := <-signals:
		Logger.Infof("received %s, shutting down", sig)
		return s.Shutdown()
	}
}

// Shutdown stops accepting requests, saves the snapshots of all local shards
// and releases all resources. Only the first call has an effect.
func (s *rpcServer) Shutdown() error {
	s.shutdownOnce.Do(func() {
		var errs []error
		if err := s.transport.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close transport: %w", err))
		}
		if err := s.SaveSnapshots(); err != nil {
			errs = append(errs, err)
		}
		if s.metricsServer != nil {
			if err := s.metricsServer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close metrics endpoint: %w", err))
			}
		}
		if s.nodeHost != nil {
			s.nodeHost.Close()
		}
		s.shutdownErr = errors.Join(errs...)
	})
	return s.shutdownErr
}

// --------------------------------------------------------------------------
// Snapshots
// --------------------------------------------------------------------------

// snapshotName returns the snapshot file name (without extension) of a shard
func snapshotName(shardId uint64) string {
	return "shard-" + strconv.FormatUint(shardId, 10)
}

// restoreSnapshot loads the snapshot of a local shard if snapshots are enabled
// and a snapshot exists
func (s *rpcServer) restoreSnapshot(shardId uint64, snap lstore.Snapshotter) error {
	if s.config.SnapshotDir == "" || snap == nil {
		return nil
	}
	path := snapshot.Path(s.config.SnapshotDir, snapshotName(shardId))
	err := snap.LoadSnapshot(path)
	if errors.Is(err, os.ErrNotExist) {
		Logger.Infof("no snapshot found for shard %d at %s", shardId, path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to restore shard %d from %s: %w", shardId, path, err)
	}
	Logger.Infof("restored shard %d from %s", shardId, path)
	return nil
}

// SaveSnapshots writes a snapshot of every local shard to the snapshot
// directory. It is a no-op if no snapshot directory is configured.
func (s *rpcServer) SaveSnapshots() error {
	if s.config.SnapshotDir == "" {
		return nil
	}
	var errs []error
	s.shards.Range(func(shardId uint64, shard serverShard) bool {
		if shard.Snapshots == nil {
			return true
		}
		path := snapshot.Path(s.config.SnapshotDir, snapshotName(shardId))
		if err := shard.Snapshots.SaveSnapshot(path); err != nil {
			errs = append(errs, fmt.Errorf("failed to save shard %d: %w", shardId, err))
			return true
		}
		Logger.Infof("saved shard %d to %s", shardId, path)
		return true
	})
	return errors.Join(errs...)
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

// startMetricsServer serves all VictoriaMetrics metrics of the process in the
// Prometheus text format at /metrics
func (s *rpcServer) startMetricsServer() {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	s.metricsServer = &http.Server{Addr: s.config.MetricsEndpoint, Handler: mux}

	go func() {
		Logger.Infof("Starting metrics endpoint on %s", s.config.MetricsEndpoint)
		if err := s.metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("metrics endpoint failed: %v", err)
		}
	}()
}
