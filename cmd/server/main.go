package main

import "github.com/wargakita/event-service/cmd/server/cmd"

func main() {
	cmd.Execute()
}
