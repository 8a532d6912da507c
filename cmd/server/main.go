package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/catsdogs/internal/app"
	"github.com/Brownie44l1/catsdogs/internal/classifier"
	"github.com/Brownie44l1/catsdogs/internal/config"
	"github.com/Brownie44l1/catsdogs/internal/handlers"
	"github.com/Brownie44l1/catsdogs/internal/logging"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)

	def, err := classifier.ParseKind(cfg.Classifier.Default)
	if err != nil {
		log.Fatal().Err(err).Msg("parse default classifier")
	}

	classifiers := app.Classifiers(cfg, def)
	defer classifiers.Close()

	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery(), handlers.RequestLogger(), handlers.CORS(cfg.HTTP.AllowOrigins))

	handler := handlers.NewHandler(classifiers, handlers.Options{
		MaxUpload: cfg.HTTP.MaxUpload,
		Fallback:  cfg.Classifier.Fallback,
	})
	handler.Register(e)

	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: e}

	log.Info().Str("addr", cfg.HTTP.Addr).Str("default", def.String()).Msg("server starting")
	log.Info().Msg("endpoints: GET /health, GET /classifiers, POST /predict, POST /predict/image")
	log.Info().Msgf("upload test: curl -X POST -F \"image=@cat.jpg\" 'http://localhost%s/predict/image?classifier=custom'", cfg.HTTP.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("run server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Err(err).Msg("shutdown server")
	}
}
