// Command migrate manages the result store schema.
//
// Usage:
//
//	migrate [up|down|status]
//
// The default command is up. Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/heartmarshall/objectdetect/internal/app"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "overall migration timeout")
	flag.Parse()

	command := app.MigrateUp
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := app.Migrate(ctx, command); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}
