package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"dbusana/internal/app"
	"dbusana/pkg/contracts"
)

func main() {
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		info := contracts.GetVersionInfo()
		fmt.Printf("%s (built %s, commit %s, %s %s/%s)\n",
			contracts.GetVersionString(), info.BuildTime, info.GitCommit,
			info.GoVersion, info.OS, info.Architecture)
		return
	}

	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
