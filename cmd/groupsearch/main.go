package main

import (
	"log"

	"github.com/grouphunt/groupsearch-bot/internal/cli"
)

func main() {
	if err := cli.Run(); err != nil {
		log.Fatalf("groupsearch: %v", err)
	}
}
