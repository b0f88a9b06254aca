package internal

import (
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/sethj34/obs-dashboard/internal/health"
	"github.com/sethj34/obs-dashboard/internal/middleware"
	"github.com/sethj34/obs-dashboard/internal/progress"
	"github.com/sethj34/obs-dashboard/internal/status"
	"github.com/sethj34/obs-dashboard/internal/video"
)

func NewRequestHandler(config *Config, videoEndpoints *video.Endpoints, healthEndpoints *health.HealthEndpoints, statusEndpoints *status.StatusEndpoints, wsHandler *progress.Handler) fasthttp.RequestHandler {
	corsMiddleware := middleware.NewCORSMiddleware(config.Server.AllowedOrigins)

	handler := func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())

		switch {
		case path == "/videos":
			method := string(ctx.Method())
			switch method {
			case "GET":
				videoEndpoints.List(ctx)
			case "POST":
				videoEndpoints.Upload(ctx)
			default:
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}

		case strings.HasPrefix(path, "/videos/") && strings.HasSuffix(path, "/stream"):
			parts := strings.Split(path, "/")
			if len(parts) == 4 && parts[2] != "" && parts[3] == "stream" {
				ctx.SetUserValue("videoID", parts[2])
				if string(ctx.Method()) == "GET" {
					videoEndpoints.Stream(ctx)
				} else {
					ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
				}
			} else {
				ctx.Error("Not Found", fasthttp.StatusNotFound)
			}

		case strings.HasPrefix(path, "/videos/") && strings.HasSuffix(path, "/upload/youtube"):
			parts := strings.Split(path, "/")
			if len(parts) == 5 && parts[2] != "" && parts[3] == "upload" && parts[4] == "youtube" {
				ctx.SetUserValue("videoID", parts[2])
				if string(ctx.Method()) == "POST" {
					videoEndpoints.UploadToYouTube(ctx)
				} else {
					ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
				}
			} else {
				ctx.Error("Not Found", fasthttp.StatusNotFound)
			}

		case path == "/health":
			healthEndpoints.Health(ctx)
		case path == "/status":
			statusEndpoints.Status(ctx)

		case path == "/ws":
			wsHandler.HandleFastHTTP(ctx)

		default:
			ctx.Error("Not Found", fasthttp.StatusNotFound)
		}
	}

	return corsMiddleware.Handle(handler)
}
