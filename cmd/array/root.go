package array

import (
	"encoding/json"
	"github.com/ValentinKolb/dArray/cmd/util"
	"github.com/ValentinKolb/dArray/lib/array"
	"github.com/ValentinKolb/dArray/lib/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rpcStore store.IStore

	// ArrayCommands represents the array command group
	ArrayCommands = &cobra.Command{
		Use:               "array",
		Short:             "Perform operations on sharded arrays",
		Long:              "Perform operations on sharded arrays. Elements are JSON values, arguments that are not valid JSON are stored as strings.",
		PersistentPreRunE: setupArrayClient,
	}
)

func init() {
	// Add common RPC flags to the array command
	util.SetupRPCClientFlags(ArrayCommands)

	key := "shard"
	ArrayCommands.PersistentFlags().Int(key, 100, util.WrapString("ID of the shard the arrays are stored in"))

	key = "prefix"
	ArrayCommands.PersistentFlags().String(key, array.DefaultPrefix, util.WrapString("Namespace of the shard and index keys of the arrays"))

	key = "max-shard-size"
	ArrayCommands.PersistentFlags().Int(key, array.DefaultMaxShardSize, util.WrapString("Maximum encoded size of a single shard in bytes"))

	// Add subcommands
	ArrayCommands.AddCommand(addCmd)
	ArrayCommands.AddCommand(listCmd)
	ArrayCommands.AddCommand(hasCmd)
	ArrayCommands.AddCommand(sizeCmd)
	ArrayCommands.AddCommand(findCmd)
	ArrayCommands.AddCommand(shardsCmd)
	ArrayCommands.AddCommand(clearCmd)
	ArrayCommands.AddCommand(perfTestCmd)
}

// setupArrayClient initializes the RPC store client
func setupArrayClient(cmd *cobra.Command, _ []string) (err error) {
	rpcStore, err = util.NewRPCStore(cmd)
	return err
}

// arrayOptions returns the array options configured by the flags
func arrayOptions() *array.Options {
	return &array.Options{
		MaxShardSize: viper.GetInt("max-shard-size"),
		Prefix:       viper.GetString("prefix"),
	}
}

// openArray creates the array with the given id on the connected shard
func openArray(id string) (*array.Array[any], error) {
	return array.New[any](rpcStore, id, arrayOptions())
}

// parseElement decodes arg as JSON. Arguments that are no valid JSON are returned as string.
func parseElement(arg string) any {
	var value any
	if err := json.Unmarshal([]byte(arg), &value); err != nil {
		return arg
	}
	return value
}

// formatElement encodes an element as JSON for printing
func formatElement(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return "<invalid>"
	}
	return string(data)
}
