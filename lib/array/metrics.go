package array

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

// arrayMetrics holds the counters of all arrays sharing a key prefix.
// The counters are registered in the default VictoriaMetrics set and are
// exposed by the server's /metrics endpoint.
type arrayMetrics struct {
	shardWrites    *metrics.Counter // successful shard writes
	shardOverflows *metrics.Counter // elements moved to the next shard
	loads          *metrics.Counter // cache loads from the store
	invalidKeys    *metrics.Counter // skipped keys and undecodable values
}

func newArrayMetrics(prefix string) *arrayMetrics {
	counter := func(name string) *metrics.Counter {
		return metrics.GetOrCreateCounter(fmt.Sprintf(`%s{prefix=%q}`, name, prefix))
	}
	return &arrayMetrics{
		shardWrites:    counter("darray_shard_writes_total"),
		shardOverflows: counter("darray_shard_overflows_total"),
		loads:          counter("darray_loads_total"),
		invalidKeys:    counter("darray_invalid_keys_total"),
	}
}
