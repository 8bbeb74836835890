package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ondisk/seglog/pkg/wal"
)

var (
	dumpFrom uint64
	dumpTo   uint64
)

// dumpCmd prints entries in a given index range. This log's random-read model has no standing
// iterator to stream off, so dumping a range is its own command built on repeated Read calls.
var dumpCmd = &cobra.Command{
	Use:          "dump",
	Short:        "Prints entries in a given index range.",
	Long:         `Prints entries in a given index range.`,
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

		from := dumpFrom
		if from == 0 {
			if from, err = l.FirstIndex(); err != nil {
				return err
			}
		}
		to := dumpTo
		if to == 0 {
			if to, err = l.LastIndex(); err != nil {
				return err
			}
		}

		for index := from; index <= to; index++ {
			data, err := l.Read(index)
			if err != nil {
				return fmt.Errorf("reading index %d: %w", index, err)
			}
			fmt.Printf("%d\t%q\n", index, data)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().Uint64Var(&dumpFrom, "from", 0, "First index to print. Defaults to FirstIndex.")
	dumpCmd.Flags().Uint64Var(&dumpTo, "to", 0, "Last index to print. Defaults to LastIndex.")
}
