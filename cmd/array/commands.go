package array

import (
	"fmt"
	"github.com/spf13/cobra"
	"strings"
)

var (
	addCmd = &cobra.Command{
		Use:   "add [id] [element...]",
		Short: "Appends elements to an array",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			arr, err := openArray(args[0])
			if err != nil {
				return err
			}

			elements := make([]any, 0, len(args)-1)
			for _, arg := range args[1:] {
				elements = append(elements, parseElement(arg))
			}
			if err := arr.AddAll(elements...); err != nil {
				return err
			}
			fmt.Printf("added %d elements\n", len(elements))
			return nil
		},
	}
	listCmd = &cobra.Command{
		Use:   "list [id]",
		Short: "Prints all elements of an array in insertion order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arr, err := openArray(args[0])
			if err != nil {
				return err
			}
			for i, value := range arr.All() {
				fmt.Printf("%d\t%s\n", i, formatElement(value))
			}
			return arr.Err()
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [id] [element]",
		Short: "Checks if an array contains an element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			arr, err := openArray(args[0])
			if err != nil {
				return err
			}
			found, err := arr.Has(parseElement(args[1]))
			if err != nil {
				return err
			}
			fmt.Printf("id=%s, element=%s, found=%t\n", args[0], args[1], found)
			return nil
		},
	}
	sizeCmd = &cobra.Command{
		Use:   "size [id]",
		Short: "Prints the number of elements of an array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arr, err := openArray(args[0])
			if err != nil {
				return err
			}
			size, err := arr.Size()
			if err != nil {
				return err
			}
			fmt.Printf("id=%s, size=%d\n", args[0], size)
			return nil
		},
	}
	findCmd = &cobra.Command{
		Use:   "find [id] [substring]",
		Short: "Prints the elements whose JSON encoding contains substring",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			arr, err := openArray(args[0])
			if err != nil {
				return err
			}
			matches := func(value any) bool {
				return strings.Contains(formatElement(value), args[1])
			}

			if first, _ := cmd.Flags().GetBool("first"); first {
				value, found, err := arr.Find(matches)
				if err != nil {
					return err
				}
				if !found {
					fmt.Println("no match")
					return nil
				}
				fmt.Println(formatElement(value))
				return nil
			}

			values, err := arr.Filter(matches)
			if err != nil {
				return err
			}
			fmt.Printf("%d matches\n", len(values))
			for _, value := range values {
				fmt.Println(formatElement(value))
			}
			return nil
		},
	}
	shardsCmd = &cobra.Command{
		Use:   "shards [id]",
		Short: "Prints the shards of an array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arr, err := openArray(args[0])
			if err != nil {
				return err
			}
			shards, err := arr.Shards()
			if err != nil {
				return err
			}
			current, err := arr.CurrentShard()
			if err != nil {
				return err
			}

			fmt.Printf("%-8s%-32s%-10s%s\n", "INDEX", "KEY", "ELEMENTS", "BYTES")
			for _, shard := range shards {
				marker := ""
				if shard.Index == current {
					marker = " (current)"
				}
				fmt.Printf("%-8d%-32s%-10d%d%s\n", shard.Index, shard.Key, shard.Len, shard.Bytes, marker)
			}
			return nil
		},
	}
	clearCmd = &cobra.Command{
		Use:   "clear [id]",
		Short: "Deletes all shards and the index of an array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arr, err := openArray(args[0])
			if err != nil {
				return err
			}
			if err := arr.Clear(); err != nil {
				return err
			}
			fmt.Println("cleared successfully")
			return nil
		},
	}
)

func init() {
	findCmd.Flags().Bool("first", false, "Only print the first match")
}
