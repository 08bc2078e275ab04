package main

import (
	"os"

	"horse.fit/phrasebook/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
