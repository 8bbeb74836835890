package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ondisk/seglog/pkg/wal"
)

// describeCmd represents the describe command.
var describeCmd = &cobra.Command{
	Use:          "describe",
	Short:        "Provides detailed information about the write-ahead log.",
	Long:         `Provides detailed information about the write-ahead log.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := wal.Open(directory)
		if err != nil {
			return err
		}
		defer func() {
			if err := l.Close(); err != nil {
				fmt.Println(err)
			}
		}()

		first, err := l.FirstIndex()
		if err != nil {
			return err
		}
		last, err := l.LastIndex()
		if err != nil {
			return err
		}

		fmt.Printf("Directory:   %s\n", directory)
		fmt.Printf("FirstIndex:  %d\n", first)
		fmt.Printf("LastIndex:   %d\n", last)
		fmt.Println()

		config := l.Config()
		fmt.Println("Options:")
		fmt.Printf("  NoSync:           %t\n", config.NoSync)
		fmt.Printf("  SegmentSize:      %d\n", config.SegmentSize)
		fmt.Printf("  LogFormat:        %s\n", config.LogFormat)
		fmt.Printf("  SegmentCacheSize: %d\n", config.SegmentCacheSize)
		fmt.Printf("  NoCopy:           %t\n", config.NoCopy)
		fmt.Printf("  DirPerms:         %#o\n", config.DirPerms)
		fmt.Printf("  FilePerms:        %#o\n", config.FilePerms)
		fmt.Println()

		segments, err := l.Segments()
		if err != nil {
			return err
		}
		fmt.Println("Segments:")
		for _, s := range segments {
			fmt.Printf("  %s\tstart=%d\tentries=%d\tbytes=%d\n", s.Path, s.StartIndex, s.EntryCount, s.ByteSize)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
