package main

import (
	"flag"
	"log"
	"os"

	"dreampipe/internal/logging"
	"dreampipe/internal/xcodeproj"
)

func main() {
	project := flag.String("project", "Dreamecho.xcodeproj", "path to the .xcodeproj to patch")
	flag.Parse()

	logger, err := logging.NewFileLogger("tools/pipeline.log", os.Stdout)
	if err != nil {
		log.Fatalf("Failed to open pipeline log: %v", err)
	}
	defer logger.Close()

	patcher := xcodeproj.NewPatcher(logger)

	changed, err := patcher.AddConvertPhase(*project)
	if err != nil {
		logger.Logf("Failed to add build phase: %v", err)
		os.Exit(1)
	}

	if changed {
		logger.Logf("Build phase added, conversion will run on every build")
	} else {
		logger.Logf("Nothing to do, build phase already installed")
	}
}
