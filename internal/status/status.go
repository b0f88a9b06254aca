package status

import (
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"github.com/sethj34/obs-dashboard/internal/catalog"
	"github.com/sethj34/obs-dashboard/internal/progress"
)

type StatusEndpoints struct {
	version string
	catalog catalog.Catalog
	hub     *progress.Hub
}

func NewEndpoints(version string, cat catalog.Catalog, hub *progress.Hub) *StatusEndpoints {
	return &StatusEndpoints{
		version: version,
		catalog: cat,
		hub:     hub,
	}
}

type StatusResponse struct {
	Health        string `json:"health"`
	Version       string `json:"version"`
	Videos        int    `json:"videos"`
	WSClients     int    `json:"wsClients"`
	Subscriptions int    `json:"subscriptions"`
}

func (se *StatusEndpoints) Status(ctx *fasthttp.RequestCtx) {
	videos, err := se.catalog.Count()
	if err != nil {
		log.Error().Err(err).Msg("Failed to count catalog records")
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}

	clients, subscriptions := se.hub.GetStats()

	response := StatusResponse{
		Health:        "OK",
		Version:       se.version,
		Videos:        videos,
		WSClients:     clients,
		Subscriptions: subscriptions,
	}

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)

	responseJSON, err := json.Marshal(response)
	if err != nil {
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetBody(responseJSON)
}
