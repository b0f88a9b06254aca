package video

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"mime/multipart"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	"github.com/sethj34/obs-dashboard/internal/blob"
	"github.com/sethj34/obs-dashboard/internal/catalog"
)

type fakeUploader struct {
	mu       sync.Mutex
	result   []byte
	err      error
	lastPath string
	progress []int
}

func (u *fakeUploader) Upload(ctx context.Context, filePath, title, privacy string, onProgress func(int)) ([]byte, error) {
	u.mu.Lock()
	u.lastPath = filePath
	u.mu.Unlock()
	for _, p := range u.progress {
		onProgress(p)
	}
	return u.result, u.err
}

type fakeNotifier struct {
	mu       sync.Mutex
	percents []int
	results  int
}

func (n *fakeNotifier) UploadProgress(videoID string, percent int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.percents = append(n.percents, percent)
}

func (n *fakeNotifier) UploadResult(videoID string, result []byte, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results++
}

func newTestEndpoints(t *testing.T) (*Endpoints, *fakeUploader, *fakeNotifier) {
	t.Helper()
	blobs, err := blob.NewLocalStore(&blob.Config{LocalPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to create blob store: %v", err)
	}
	uploader := &fakeUploader{result: []byte(`{"ok":true}`)}
	notifier := &fakeNotifier{}
	service := NewService(catalog.NewMemoryCatalog(), blobs)
	return NewEndpoints(service, uploader, notifier), uploader, notifier
}

func newRequestCtx(method, uri string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

func uploadVideo(t *testing.T, e *Endpoints, filename, title string, content []byte) *catalog.VideoRecord {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if title != "" {
		writer.WriteField("title", title)
	}
	writer.Close()

	var req fasthttp.Request
	req.Header.SetMethod("POST")
	req.SetRequestURI("/videos")
	req.Header.SetContentType(writer.FormDataContentType())
	req.SetBody(body.Bytes())

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)

	e.Upload(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusCreated {
		t.Fatalf("Upload: expected 201, got %d (%s)", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	record := &catalog.VideoRecord{}
	if err := json.Unmarshal(ctx.Response.Body(), record); err != nil {
		t.Fatalf("Failed to parse upload response: %v", err)
	}
	return record
}

func streamVideo(e *Endpoints, id, rangeHeader string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod("GET")
	req.SetRequestURI("/videos/" + id + "/stream")
	if rangeHeader != "" {
		req.Header.Set(fasthttp.HeaderRange, rangeHeader)
	}

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	ctx.SetUserValue("videoID", id)

	e.Stream(ctx)
	return ctx
}

func TestEndpoints_Upload_ReturnsCreatedRecord(t *testing.T) {
	// given
	e, _, _ := newTestEndpoints(t)

	// when
	record := uploadVideo(t, e, "demo.mp4", "Demo run", []byte("video bytes"))

	// then
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "Demo run", record.Title)
	assert.Equal(t, "demo.mp4", record.OriginalName)
	assert.Equal(t, int64(len("video bytes")), record.SizeBytes)
	assert.Equal(t, "video/mp4", record.MimeType)
}

func TestEndpoints_Upload_WithoutFileIsBadRequest(t *testing.T) {
	e, _, _ := newTestEndpoints(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("title", "no file here")
	writer.Close()

	var req fasthttp.Request
	req.Header.SetMethod("POST")
	req.SetRequestURI("/videos")
	req.Header.SetContentType(writer.FormDataContentType())
	req.SetBody(body.Bytes())

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)

	e.Upload(ctx)

	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestEndpoints_Upload_NonMultipartIsBadRequest(t *testing.T) {
	e, _, _ := newTestEndpoints(t)

	ctx := newRequestCtx("POST", "/videos")
	e.Upload(ctx)

	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestEndpoints_List_NewestFirst(t *testing.T) {
	e, _, _ := newTestEndpoints(t)

	uploadVideo(t, e, "one.mp4", "", []byte("1"))
	uploadVideo(t, e, "two.mp4", "", []byte("2"))

	ctx := newRequestCtx("GET", "/videos")
	e.List(ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var records []*catalog.VideoRecord
	if err := json.Unmarshal(ctx.Response.Body(), &records); err != nil {
		t.Fatalf("Failed to parse list response: %v", err)
	}
	if assert.Len(t, records, 2) {
		assert.Equal(t, "two.mp4", records[0].OriginalName)
		assert.Equal(t, "one.mp4", records[1].OriginalName)
	}
}

func TestEndpoints_List_EmptyCatalogIsEmptyArray(t *testing.T) {
	e, _, _ := newTestEndpoints(t)

	ctx := newRequestCtx("GET", "/videos")
	e.List(ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "[]", string(bytes.TrimSpace(ctx.Response.Body())))
}

func TestEndpoints_Stream_FullContent(t *testing.T) {
	// given a 1000-byte video
	e, _, _ := newTestEndpoints(t)
	content := make([]byte, 1000)
	for i := range content {
		content[i] = byte(i % 247)
	}
	record := uploadVideo(t, e, "clip.mp4", "", content)

	// when requested without a Range header
	ctx := streamVideo(e, record.ID, "")

	// then the full body round-trips
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, 1000, ctx.Response.Header.ContentLength())
	assert.Equal(t, "video/mp4", string(ctx.Response.Header.ContentType()))
	assert.True(t, bytes.Equal(content, ctx.Response.Body()), "body must equal stored bytes")
}

func TestEndpoints_Stream_OpenEndedRange(t *testing.T) {
	e, _, _ := newTestEndpoints(t)
	content := make([]byte, 1000)
	for i := range content {
		content[i] = byte(i)
	}
	record := uploadVideo(t, e, "clip.mp4", "", content)

	ctx := streamVideo(e, record.ID, "bytes=500-")

	assert.Equal(t, fasthttp.StatusPartialContent, ctx.Response.StatusCode())
	assert.Equal(t, "bytes 500-999/1000", string(ctx.Response.Header.Peek(fasthttp.HeaderContentRange)))
	assert.Equal(t, "bytes", string(ctx.Response.Header.Peek(fasthttp.HeaderAcceptRanges)))
	assert.Equal(t, 500, ctx.Response.Header.ContentLength())
	assert.True(t, bytes.Equal(content[500:], ctx.Response.Body()))
}

func TestEndpoints_Stream_ClampedRange(t *testing.T) {
	e, _, _ := newTestEndpoints(t)
	content := make([]byte, 1000)
	for i := range content {
		content[i] = byte(i)
	}
	record := uploadVideo(t, e, "clip.mp4", "", content)

	ctx := streamVideo(e, record.ID, "bytes=900-2000")

	assert.Equal(t, fasthttp.StatusPartialContent, ctx.Response.StatusCode())
	assert.Equal(t, "bytes 900-999/1000", string(ctx.Response.Header.Peek(fasthttp.HeaderContentRange)))
	assert.Equal(t, 100, ctx.Response.Header.ContentLength())
	assert.True(t, bytes.Equal(content[900:], ctx.Response.Body()))
}

func TestEndpoints_Stream_UnsatisfiableRange(t *testing.T) {
	e, _, _ := newTestEndpoints(t)
	record := uploadVideo(t, e, "clip.mp4", "", make([]byte, 1000))

	ctx := streamVideo(e, record.ID, "bytes=1000-1500")

	assert.Equal(t, fasthttp.StatusRequestedRangeNotSatisfiable, ctx.Response.StatusCode())
	assert.Equal(t, "bytes */1000", string(ctx.Response.Header.Peek(fasthttp.HeaderContentRange)))
	assert.Empty(t, ctx.Response.Body())
}

func TestEndpoints_Stream_MalformedRangeFallsBackToFullContent(t *testing.T) {
	e, _, _ := newTestEndpoints(t)
	content := []byte("short but complete")
	record := uploadVideo(t, e, "clip.mp4", "", content)

	for _, header := range []string{"bytes=abc-", "bytes=5,10", "bytes=0-10,20-30", "  "} {
		ctx := streamVideo(e, record.ID, header)

		assert.Equalf(t, fasthttp.StatusOK, ctx.Response.StatusCode(), "header %q", header)
		assert.Truef(t, bytes.Equal(content, ctx.Response.Body()), "header %q must serve full body", header)
	}
}

func TestEndpoints_Stream_UnknownIDIs404(t *testing.T) {
	e, _, _ := newTestEndpoints(t)

	ctx := streamVideo(e, "no-such-id", "bytes=0-10")

	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestEndpoints_Stream_ConcurrentClientsGetIndependentStreams(t *testing.T) {
	// given one stored video and two byte intervals
	e, _, _ := newTestEndpoints(t)
	content := make([]byte, 2048)
	for i := range content {
		content[i] = byte(i * 7)
	}
	record := uploadVideo(t, e, "clip.mp4", "", content)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		start := i * 128
		end := start + 511
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := streamVideo(e, record.ID, fmt.Sprintf("bytes=%d-%d", start, end))
			if ctx.Response.StatusCode() != fasthttp.StatusPartialContent {
				t.Errorf("Expected 206, got %d", ctx.Response.StatusCode())
				return
			}
			if !bytes.Equal(content[start:end+1], ctx.Response.Body()) {
				t.Errorf("Range %d-%d: interleaved or wrong bytes", start, end)
			}
		}()
	}
	wg.Wait()
}

func TestEndpoints_UploadToYouTube_PassesProviderResponseThrough(t *testing.T) {
	// given
	e, uploader, notifier := newTestEndpoints(t)
	uploader.progress = []int{10, 55, 100}
	record := uploadVideo(t, e, "clip.mp4", "", []byte("bytes"))

	var req fasthttp.Request
	req.Header.SetMethod("POST")
	req.SetRequestURI("/videos/" + record.ID + "/upload/youtube")
	req.Header.SetContentType("application/json")
	req.SetBody([]byte(`{"privacy":"private"}`))

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	ctx.SetUserValue("videoID", record.ID)

	// when
	e.UploadToYouTube(ctx)

	// then the provider response comes back verbatim and progress fans out
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"ok":true}`, string(ctx.Response.Body()))
	assert.Equal(t, []int{10, 55, 100}, notifier.percents)
	assert.Equal(t, 1, notifier.results)
	assert.NotEmpty(t, uploader.lastPath)
}

func TestStreamBodySize_LengthsBeyondPlatformIntStreamChunked(t *testing.T) {
	assert.Equal(t, 1000, streamBodySize(1000))
	assert.Equal(t, 0, streamBodySize(0))

	// On 32-bit platforms a multi-GiB blob length exceeds int; it must map
	// to -1 (chunked) rather than truncate.
	const fiveGiB = int64(5) << 30
	if fiveGiB > int64(math.MaxInt) {
		assert.Equal(t, -1, streamBodySize(fiveGiB))
	} else {
		assert.Equal(t, int(fiveGiB), streamBodySize(fiveGiB))
	}
}

func TestEndpoints_UploadToYouTube_UnknownIDIs404(t *testing.T) {
	e, _, _ := newTestEndpoints(t)

	ctx := newRequestCtx("POST", "/videos/ghost/upload/youtube")
	ctx.SetUserValue("videoID", "ghost")

	e.UploadToYouTube(ctx)

	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestEndpoints_UploadToYouTube_HelperFailureIsBadGateway(t *testing.T) {
	e, uploader, notifier := newTestEndpoints(t)
	uploader.result = nil
	uploader.err = fmt.Errorf("helper exploded")
	record := uploadVideo(t, e, "clip.mp4", "", []byte("bytes"))

	ctx := newRequestCtx("POST", "/videos/"+record.ID+"/upload/youtube")
	ctx.SetUserValue("videoID", record.ID)

	e.UploadToYouTube(ctx)

	assert.Equal(t, fasthttp.StatusBadGateway, ctx.Response.StatusCode())
	assert.Equal(t, 1, notifier.results)
}
