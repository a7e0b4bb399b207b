package main

import (
	"os"

	"github.com/yungbote/matchmaker-backend/cmd/matchctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
