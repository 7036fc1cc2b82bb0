package main

import (
	"log/slog"
	"os"

	"github.com/buildsafe/siteward/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
