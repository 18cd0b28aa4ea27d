package cmd

import (
	"fmt"
	"github.com/ValentinKolb/dArray/cmd/array"
	"github.com/ValentinKolb/dArray/cmd/kv"
	"github.com/ValentinKolb/dArray/cmd/serve"
	"github.com/ValentinKolb/dArray/cmd/util"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "0.1.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "darray",
		Short: "sharded arrays on top of a bounded key-value store",
		Long: fmt.Sprintf(`dArray (v%s)

Append-only arrays that are split into shards of bounded size and
stored in a local or RAFT replicated key-value store.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dArray",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dArray v%s\n", Version)
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(array.ArrayCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
