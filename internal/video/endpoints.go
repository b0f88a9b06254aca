package video

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"github.com/sethj34/obs-dashboard/internal/blob"
	"github.com/sethj34/obs-dashboard/internal/catalog"
)

// Uploader forwards a spooled video file to the external hosting provider
// and returns the provider response verbatim.
type Uploader interface {
	Upload(ctx context.Context, filePath, title, privacy string, onProgress func(percent int)) ([]byte, error)
}

// ProgressNotifier receives provider upload progress for fan-out to
// interested clients.
type ProgressNotifier interface {
	UploadProgress(videoID string, percent int)
	UploadResult(videoID string, result []byte, err error)
}

type Endpoints struct {
	service  *Service
	uploader Uploader
	notifier ProgressNotifier
}

func NewEndpoints(service *Service, uploader Uploader, notifier ProgressNotifier) *Endpoints {
	return &Endpoints{
		service:  service,
		uploader: uploader,
		notifier: notifier,
	}
}

func (e *Endpoints) Upload(ctx *fasthttp.RequestCtx) {
	contentType := string(ctx.Request.Header.ContentType())
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		ctx.Error("Content-Type must be multipart/form-data", fasthttp.StatusBadRequest)
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.Error("Failed to parse multipart form", fasthttp.StatusBadRequest)
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		ctx.Error("No file uploaded", fasthttp.StatusBadRequest)
		return
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		ctx.Error("Failed to open uploaded file", fasthttp.StatusInternalServerError)
		return
	}
	defer file.Close()

	title := ""
	if titles := form.Value["title"]; len(titles) > 0 {
		title = titles[0]
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = detectContentType(fileHeader.Filename)
	}

	record, err := e.service.Intake(ctx, &IntakeRequest{
		FileName: fileHeader.Filename,
		Title:    title,
		MimeType: mimeType,
		Data:     file,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to ingest upload")
		ctx.Error("Failed to store upload", fasthttp.StatusInternalServerError)
		return
	}

	response, _ := json.Marshal(record)
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusCreated)
	ctx.SetBody(response)
}

func (e *Endpoints) List(ctx *fasthttp.RequestCtx) {
	records, err := e.service.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list videos")
		ctx.Error("Failed to list videos", fasthttp.StatusInternalServerError)
		return
	}

	response, _ := json.Marshal(records)
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(response)
}

func (e *Endpoints) Stream(ctx *fasthttp.RequestCtx) {
	videoID, ok := ctx.UserValue("videoID").(string)
	if !ok || videoID == "" {
		ctx.Error("Video ID is required", fasthttp.StatusBadRequest)
		return
	}

	rangeHeader := string(ctx.Request.Header.Peek(fasthttp.HeaderRange))

	data, err := e.service.Stream(ctx, videoID, rangeHeader)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, blob.ErrNotFound) {
			ctx.Error("Video not found", fasthttp.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("videoId", videoID).Msg("Failed to open video stream")
		ctx.Error("Failed to open video stream", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType(data.ContentType)

	switch data.Range.Kind {
	case Satisfiable:
		ctx.Response.Header.Set(fasthttp.HeaderContentRange,
			fmt.Sprintf("bytes %d-%d/%d", data.Range.Start, data.Range.End, data.TotalSize))
		ctx.Response.Header.Set(fasthttp.HeaderAcceptRanges, "bytes")
		ctx.SetStatusCode(fasthttp.StatusPartialContent)
		ctx.Response.SetBodyStream(data.Reader, streamBodySize(data.Range.End-data.Range.Start+1))

	case Unsatisfiable:
		ctx.Response.Header.Set(fasthttp.HeaderContentRange,
			fmt.Sprintf("bytes */%d", data.TotalSize))
		ctx.SetStatusCode(fasthttp.StatusRequestedRangeNotSatisfiable)

	default: // NoRange and Malformed both get the full resource.
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.Response.SetBodyStream(data.Reader, streamBodySize(data.TotalSize))
	}
}

// streamBodySize converts a blob length to fasthttp's body-stream size
// argument. A length that does not fit in int (large blobs on 32-bit
// platforms) falls back to -1, which streams chunked until EOF instead of
// truncating the Content-Length.
func streamBodySize(n int64) int {
	if n > math.MaxInt {
		return -1
	}
	return int(n)
}

type providerUploadRequest struct {
	Privacy string `json:"privacy"`
}

func (e *Endpoints) UploadToYouTube(ctx *fasthttp.RequestCtx) {
	videoID, ok := ctx.UserValue("videoID").(string)
	if !ok || videoID == "" {
		ctx.Error("Video ID is required", fasthttp.StatusBadRequest)
		return
	}

	req := providerUploadRequest{Privacy: "unlisted"}
	if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			ctx.Error("Invalid request body", fasthttp.StatusBadRequest)
			return
		}
		if req.Privacy == "" {
			req.Privacy = "unlisted"
		}
	}

	record, err := e.service.Get(videoID)
	if err != nil {
		ctx.Error("Video not found", fasthttp.StatusNotFound)
		return
	}

	filePath, cleanup, err := e.service.SpoolToFile(ctx, record)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			ctx.Error("Video not found", fasthttp.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("videoId", videoID).Msg("Failed to spool video for provider upload")
		ctx.Error("Failed to prepare upload", fasthttp.StatusInternalServerError)
		return
	}
	defer cleanup()

	result, err := e.uploader.Upload(ctx, filePath, record.Title, req.Privacy, func(percent int) {
		e.notifier.UploadProgress(videoID, percent)
	})
	e.notifier.UploadResult(videoID, result, err)
	if err != nil {
		log.Error().Err(err).Str("videoId", videoID).Msg("Provider upload failed")
		ctx.Error("Provider upload failed", fasthttp.StatusBadGateway)
		return
	}

	// The provider response has no contract of its own; pass it through.
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(result)
}

func detectContentType(filename string) string {
	dotIndex := strings.LastIndex(filename, ".")
	if dotIndex == -1 || dotIndex == len(filename)-1 {
		return "application/octet-stream"
	}
	ext := strings.ToLower(filename[dotIndex+1:])
	switch ext {
	case "mp4", "m4v":
		return "video/mp4"
	case "webm":
		return "video/webm"
	case "mov":
		return "video/quicktime"
	case "mkv":
		return "video/x-matroska"
	case "avi":
		return "video/x-msvideo"
	default:
		return "application/octet-stream"
	}
}
