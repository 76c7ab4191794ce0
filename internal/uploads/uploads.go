// Package uploads orchestrates file transfer to the platform: chunked
// sequential uploads for large files, presigned direct PUTs for the
// rest, with weighted aggregate progress across batches.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"

	"hubclient/internal/apiclient"
	"hubclient/internal/config"
	"hubclient/internal/metrics"
)

// API is the slice of the API client the upload manager depends on.
type API interface {
	PresignedURL(ctx context.Context, req apiclient.PresignedURLRequest) (apiclient.PresignedURLResponse, error)
	UploadChunk(ctx context.Context, name, fileKey string, index, total int, data []byte) (apiclient.ChunkResponse, error)
}

// File is one upload input.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Result identifies a completed upload by its storage key.
type Result struct {
	Name string
	Key  string
}

// Progress receives fractional progress on the 0-100 scale.
type Progress func(pct float64)

// ErrAllFailed is returned by UploadFiles only when every file in the
// batch failed; partial failure is tolerated.
var ErrAllFailed = errors.New("all uploads failed")

// Manager drives uploads. The direct PUT to a presigned URL uses its
// own HTTP client because it bypasses the API server entirely.
type Manager struct {
	api            API
	httpClient     *http.Client
	chunkThreshold int64
	chunkSize      int64
}

func New(api API, cfg config.UploadsConfig) *Manager {
	threshold := cfg.ChunkThreshold
	if threshold <= 0 {
		threshold = 8 << 20
	}
	size := cfg.ChunkSize
	if size <= 0 {
		size = 4 << 20
	}
	return &Manager{
		api:            api,
		httpClient:     &http.Client{Timeout: 10 * time.Minute},
		chunkThreshold: threshold,
		chunkSize:      size,
	}
}

// UploadFile transfers one file, picking the chunked path for files
// above the threshold.
func (m *Manager) UploadFile(ctx context.Context, f File, progress Progress) (Result, error) {
	if f.Name == "" {
		return Result{}, fmt.Errorf("%w: file name is required", apiclient.ErrValidation)
	}
	if f.Size <= 0 {
		return Result{}, fmt.Errorf("%w: file size must be positive", apiclient.ErrValidation)
	}
	if f.Size > m.chunkThreshold {
		return m.uploadChunked(ctx, f, progress)
	}
	return m.uploadPresigned(ctx, f, progress)
}

// uploadChunked sends fixed-size chunks strictly in order. The server
// issues a file key on chunk 0; every later chunk must carry it, so
// chunks cannot be parallelized.
func (m *Manager) uploadChunked(ctx context.Context, f File, progress Progress) (Result, error) {
	total := int((f.Size + m.chunkSize - 1) / m.chunkSize)
	fileKey := ""
	buf := make([]byte, m.chunkSize)
	for index := 0; index < total; index++ {
		n, err := io.ReadFull(f.Reader, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return Result{}, err
		}
		if n == 0 {
			break
		}
		chunk := buf[:n]
		var resp apiclient.ChunkResponse
		backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
		err = retry.Do(ctx, backoff, func(ctx context.Context) error {
			var cerr error
			resp, cerr = m.api.UploadChunk(ctx, f.Name, fileKey, index, total, chunk)
			if cerr == nil {
				return nil
			}
			if errors.Is(cerr, apiclient.ErrValidation) || apiclient.IsAuthError(cerr) || apiclient.IsCanceled(cerr) {
				return cerr
			}
			return retry.RetryableError(cerr)
		})
		if err != nil {
			return Result{}, err
		}
		metrics.UploadChunks.Inc()
		if index == 0 {
			fileKey = resp.FileKey
			if fileKey == "" {
				return Result{}, errors.New("server did not issue a file key on the first chunk")
			}
		}
		if progress != nil {
			progress(100 * float64(index+1) / float64(total))
		}
	}
	return Result{Name: f.Name, Key: fileKey}, nil
}

// uploadPresigned requests a presigned URL and performs the binary
// transfer directly against it, reporting fractional progress.
func (m *Manager) uploadPresigned(ctx context.Context, f File, progress Progress) (Result, error) {
	signed, err := m.api.PresignedURL(ctx, apiclient.PresignedURLRequest{
		Name:        f.Name,
		ContentType: f.ContentType,
		Size:        f.Size,
	})
	if err != nil {
		return Result{}, err
	}
	body := io.Reader(f.Reader)
	if progress != nil {
		body = &progressReader{r: f.Reader, total: f.Size, fn: progress}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signed.URL, body)
	if err != nil {
		return Result{}, err
	}
	req.ContentLength = f.Size
	if f.ContentType != "" {
		req.Header.Set("Content-Type", f.ContentType)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Result{}, fmt.Errorf("presigned upload failed with status %d", resp.StatusCode)
	}
	if progress != nil {
		progress(100)
	}
	return Result{Name: f.Name, Key: signed.Key}, nil
}

// UploadFiles transfers a batch. Each file contributes 1/n of the 0-100
// aggregate scale. Individual failures are logged and filtered; the
// call errors only when every file failed.
func (m *Manager) UploadFiles(ctx context.Context, files []File, progress Progress) ([]Result, error) {
	if len(files) == 0 {
		return nil, nil
	}
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		shares  = make([]float64, len(files))
		results []Result
		failed  int
	)
	report := func(i int, pct float64) {
		if progress == nil {
			return
		}
		mu.Lock()
		shares[i] = pct
		sum := 0.0
		for _, s := range shares {
			sum += s
		}
		agg := sum / float64(len(files))
		mu.Unlock()
		progress(agg)
	}
	for i, f := range files {
		wg.Add(1)
		go func(i int, f File) {
			defer wg.Done()
			res, err := m.UploadFile(ctx, f, func(pct float64) { report(i, pct) })
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				log.Warn().Err(err).Str("file", f.Name).Msg("upload failed")
				return
			}
			report(i, 100)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(i, f)
	}
	wg.Wait()
	if failed == len(files) {
		return nil, ErrAllFailed
	}
	return results, nil
}

type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	fn    Progress
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 && p.fn != nil {
		pct := 100 * float64(p.read) / float64(p.total)
		if pct > 100 {
			pct = 100
		}
		p.fn(pct)
	}
	return n, err
}
