package main

import "github.com/ondisk/seglog/cmd/wal-cli/cmd"

func main() {
	cmd.Execute()
}
