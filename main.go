package main

import (
	"flag"
	"log"

	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/app"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/config"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/pkg/configwatcher"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/pkg/logger"
)

func main() {
	configDir := flag.String("config", "configs", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	go configwatcher.WatchConfig(*configDir+"/config.yaml", func(newCfg *config.Config) {
		logger.Log.Info("config reloaded")
		*application.Config = *newCfg
	})

	application.Run()
}
