// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cite-gate/internal/memory"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Manage the rolling project memory file",
	Long: `Memory maintains a YAML file of durable project facts and a session log.
Facts merge with deduplication by normalized text; sessions only append.`,
}

var memoryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the project memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		mem, err := memory.Load(memoryPath(cmd))
		if err != nil {
			return err
		}
		memory.FormatShow(mem, os.Stdout)
		return nil
	},
}

var memoryAddCmd = &cobra.Command{
	Use:   "add [summary]",
	Short: "Append a session entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := memoryPath(cmd)
		mem, err := memory.Load(path)
		if err != nil {
			return err
		}
		memory.AddSession(mem, today(), args[0])
		return memory.Save(path, mem)
	},
}

var memoryMergeCmd = &cobra.Command{
	Use:   "merge [fact]...",
	Short: "Merge facts into the project memory",
	Long: `Merge appends the given facts, skipping any fact already present under
whitespace- and case-insensitive comparison.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := memoryPath(cmd)
		mem, err := memory.Load(path)
		if err != nil {
			return err
		}
		added := memory.Merge(mem, args, today())
		if err := memory.Save(path, mem); err != nil {
			return err
		}
		fmt.Printf("%d fact(s) added, %d total\n", added, len(mem.Facts))
		return nil
	},
}

func memoryPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		path = viper.GetString("memory.path")
	}
	if path == "" {
		path = "memory.yaml"
	}
	return path
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func init() {
	for _, cmd := range []*cobra.Command{memoryShowCmd, memoryAddCmd, memoryMergeCmd} {
		cmd.Flags().String("file", "", "memory file path (default: memory.yaml)")
		memoryCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(memoryCmd)
}
