// Command detector runs the YOLOv5 model on images staged in the object
// store and serves the results over HTTP.
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

	if err := app.RunDetector(ctx); err != nil {
		log.Fatalf("detector: %v", err)
	}
}
