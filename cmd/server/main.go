package main

import (
	"fmt"
	"log"

	"risk-backend/internal/anomaly"
	"risk-backend/internal/config"
	"risk-backend/internal/handlers"
	"risk-backend/internal/hrstore"
	"risk-backend/internal/logging"
	"risk-backend/internal/predict"
	"risk-backend/internal/recommend"
	"risk-backend/internal/risk"
	"risk-backend/internal/server"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	client := hrstore.NewClient(cfg.HRAPIURL, logger)
	proxy := hrstore.NewProxy(client, cfg.CacheTTL)

	model := predict.NewHTTPModel(cfg.ModelAPIURL, logger)
	detector := anomaly.NewHTTPDetector(cfg.ModelAPIURL)

	var generator recommend.Generator = recommend.NoopGenerator{}
	if cfg.OpenAIKey != "" {
		generator = recommend.NewOpenAIGenerator(cfg.OpenAIKey, cfg.OpenAIModel, logger)
	} else {
		logger.Warn("OPENAI_API_KEY not set, recommendations disabled")
	}

	strictness := risk.SkipWithWarning
	if cfg.GraphStrict {
		strictness = risk.StrictFail
	}
	manager := risk.NewManager(proxy, risk.NewScorer(model), detector, strictness, logger)

	api := &handlers.API{
		Manager:   manager,
		Detector:  detector,
		Generator: generator,
		StepDelay: cfg.SimStepDelay,
		Log:       logger,
	}

	r := server.NewRouter(api, logger)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	logger.Info("starting server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
