package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ondisk/seglog/pkg/wal"
)

var (
	initSegmentSize      int64
	initLogFormat        string
	initSegmentCacheSize int
	initNoSync           bool
	initNoCopy           bool
)

// initCmd represents the init command.
var initCmd = &cobra.Command{
	Use:          "init",
	Short:        "Initializes a new write-ahead log.",
	Long:         `Initializes a new write-ahead log.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		segments, err := wal.GetSegments(directory)
		if err != nil {
			return err
		}
		if len(segments) != 0 {
			return fmt.Errorf("WAL already initialized at %q", directory)
		}

		var format wal.Format
		switch initLogFormat {
		case "binary":
			format = wal.Binary
		case "json":
			format = wal.JSON
		default:
			return fmt.Errorf("unsupported log format %q", initLogFormat)
		}

		if err := wal.Init(
			directory,
			wal.WithSegmentSize(initSegmentSize),
			wal.WithLogFormat(format),
			wal.WithSegmentCacheSize(initSegmentCacheSize),
			wal.WithNoSync(initNoSync),
			wal.WithNoCopy(initNoCopy),
		); err != nil {
			return err
		}
		fmt.Printf("WAL initialized at %q.\n", directory)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Int64Var(
		&initSegmentSize,
		"segment-size",
		20*1024*1024,
		"Soft byte threshold at which a segment is cycled.",
	)
	initCmd.Flags().StringVar(
		&initLogFormat,
		"log-format",
		"binary",
		"The entry framing to use. Valid values are binary, json.",
	)
	initCmd.Flags().IntVar(
		&initSegmentCacheSize,
		"segment-cache-size",
		2,
		"Number of cold segments to keep cached.",
	)
	initCmd.Flags().BoolVar(
		&initNoSync,
		"no-sync",
		false,
		"Skip durable flush after writes.",
	)
	initCmd.Flags().BoolVar(
		&initNoCopy,
		"no-copy",
		false,
		"Allow binary reads to alias the cached segment buffer.",
	)
}
