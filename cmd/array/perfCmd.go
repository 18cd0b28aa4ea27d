package array

import (
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/dArray/cmd/util"
	"github.com/ValentinKolb/dArray/lib/array"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for sharded arrays",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfIDPrefix    = "__perf"
	perfNumThreads  = 10
	perfElements    = 1000
	perfElementSize = 64
	perfSkip        = make([]string, 0)

	// perfTests are run in this order, later tests rely on the arrays filled by "add"
	perfTests = []string{"add", "load", "has", "get-all"}
)

// perfResult is the outcome of a single test
type perfResult struct {
	timer   metrics.Timer
	elapsed time.Duration
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. load,has)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use, every thread works on its own array"))
	key = "elements"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("How many elements every thread adds to its array"))
	key = "element-size"
	perfTestCmd.Flags().Int(key, 64, util.WrapString("Size of a single element (in bytes)"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfElements = max(viper.GetInt("elements"), 1)
	perfElementSize = max(viper.GetInt("element-size"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for sharded arrays")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d, Elements per thread: %d, Element size: %d bytes\n", perfNumThreads, perfElements, perfElementSize)
	fmt.Println()

	// one array per thread
	arrays := make([]*array.Array[any], perfNumThreads)
	for i := range arrays {
		arr, err := openArray(fmt.Sprintf("%s-%d", perfIDPrefix, i))
		if err != nil {
			return err
		}
		if err := arr.Clear(); err != nil {
			return fmt.Errorf("failed to prepare array %s: %w", arr.ID(), err)
		}
		arrays[i] = arr
	}

	// cleanup
	defer func() {
		for _, arr := range arrays {
			if err := arr.Clear(); err != nil {
				log.Printf("error clearing array %s: %v\n", arr.ID(), err)
			}
		}
	}()

	element := strings.Repeat("x", perfElementSize)
	ops := map[string]func(arr *array.Array[any]) error{
		"add": func(arr *array.Array[any]) error {
			return arr.Add(element)
		},
		"load": func(arr *array.Array[any]) error {
			arr.Unload()
			_, err := arr.Size()
			return err
		},
		"has": func(arr *array.Array[any]) error {
			_, err := arr.Has(element)
			return err
		},
		"get-all": func(arr *array.Array[any]) error {
			_, err := arr.GetAll()
			return err
		},
	}

	fmt.Println("staring tests...")
	fmt.Printf("%-12s%10s%14s%14s%14s%14s\n", "TEST", "OPS", "MEAN", "P50", "P99", "OPS/SEC")

	registry := metrics.NewRegistry()
	results := make(map[string]perfResult)
	for _, test := range perfTests {
		if shouldSkip(test) {
			fmt.Printf("%-12sskipped\n", test)
			continue
		}

		timer := metrics.GetOrRegisterTimer(test, registry)
		result := runTest(test, arrays, timer, ops[test])
		results[test] = result
		printResult(test, result)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// runTest runs op perfElements times per array, every array in its own goroutine
func runTest(test string, arrays []*array.Array[any], timer metrics.Timer, op func(arr *array.Array[any]) error) perfResult {
	var wg sync.WaitGroup
	start := time.Now()

	for _, arr := range arrays {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perfElements; i++ {
				opStart := time.Now()
				err := op(arr)
				timer.UpdateSince(opStart)
				if err != nil {
					log.Printf("(%s) - error on array %s: %v\n", test, arr.ID(), err)
					return
				}
			}
		}()
	}

	wg.Wait()
	return perfResult{timer: timer, elapsed: time.Since(start)}
}

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

// opsPerSec returns the throughput of all threads together
func (r perfResult) opsPerSec() float64 {
	if r.elapsed <= 0 {
		return 0
	}
	return float64(r.timer.Count()) / r.elapsed.Seconds()
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result perfResult) {
	snap := result.timer.Snapshot()
	ps := snap.Percentiles([]float64{0.5, 0.99})
	fmt.Printf("%-12s%10d%14s%14s%14s%14.0f\n",
		test,
		snap.Count(),
		time.Duration(snap.Mean()),
		time.Duration(ps[0]),
		time.Duration(ps[1]),
		result.opsPerSec(),
	)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]perfResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	config := util.GetClientConfig()

	// Write header
	header := []string{
		"Test", "Ops", "MeanNs", "P50Ns", "P99Ns", "MaxNs", "OpsPerSec",
		"Endpoints", "ShardID", "Serializer", "Transport",
		"Threads", "Elements", "ElementSize", "MaxShardSize",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for _, test := range perfTests {
		result, ok := results[test]
		if !ok {
			continue
		}
		snap := result.timer.Snapshot()
		ps := snap.Percentiles([]float64{0.5, 0.99})

		row := []string{
			test,
			strconv.FormatInt(snap.Count(), 10),
			fmt.Sprintf("%.0f", snap.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			strconv.FormatInt(snap.Max(), 10),
			fmt.Sprintf("%.0f", result.opsPerSec()),
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfElements),
			strconv.Itoa(perfElementSize),
			strconv.Itoa(viper.GetInt("max-shard-size")),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
