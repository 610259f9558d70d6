// Command bot serves the Telegram webhook and runs each received photo
// through object detection.
//
// Exit codes: 0 = clean shutdown, 1 = error.
package main

import (
	"log"

	"github.com/heartmarshall/objectdetect/internal/app"
)

func main() {
	ctx, stop := app.SignalContext()
	defer stop()

	if err := app.RunBot(ctx); err != nil {
		log.Fatalf("bot: %v", err)
	}
}
