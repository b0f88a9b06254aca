package main

import (
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"github.com/sethj34/obs-dashboard/internal"
	"github.com/sethj34/obs-dashboard/internal/blob"
	"github.com/sethj34/obs-dashboard/internal/catalog"
	"github.com/sethj34/obs-dashboard/internal/health"
	"github.com/sethj34/obs-dashboard/internal/progress"
	"github.com/sethj34/obs-dashboard/internal/status"
	"github.com/sethj34/obs-dashboard/internal/video"
	"github.com/sethj34/obs-dashboard/internal/youtube"
)

const version = "1.0.0"

func main() {
	config, err := internal.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
		return
	}

	var cat catalog.Catalog
	switch config.Catalog.Backend {
	case catalog.BackendSQLite, catalog.BackendPostgres:
		db, err := internal.NewDB(&config.Catalog)
		if err != nil {
			log.Fatal().Err(err).Msg("Error initializing catalog database")
			return
		}
		cat = catalog.NewSQLCatalog(db)
	default:
		cat, err = catalog.NewFileCatalog(config.Catalog.Path)
		if err != nil {
			log.Fatal().Err(err).Msg("Error initializing catalog")
			return
		}
	}

	blobs, err := blob.NewStore(&config.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing blob store")
		return
	}

	hub := progress.NewHub()
	go hub.Run()

	uploader := youtube.NewUploader(config.YouTube)
	videoService := video.NewService(cat, blobs)
	videoEndpoints := video.NewEndpoints(videoService, uploader, hub)
	healthEndpoints := health.NewEndpoints(version)
	statusEndpoints := status.NewEndpoints(version, cat, hub)
	wsHandler := progress.NewHandler(hub)

	requestHandler := internal.NewRequestHandler(config, videoEndpoints, healthEndpoints, statusEndpoints, wsHandler)

	log.Info().
		Str("listen", config.Server.Listen).
		Str("storage", string(config.Storage.Backend)).
		Str("catalog", string(config.Catalog.Backend)).
		Msg("Starting server")

	if err := fasthttp.ListenAndServe(config.Server.Listen, requestHandler); err != nil {
		log.Fatal().Err(err).Msg("Error starting server")
	}
}
