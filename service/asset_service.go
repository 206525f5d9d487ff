package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"kepka-migrator/models"
	"kepka-migrator/utils"
)

const defaultContentType = "application/octet-stream"

// AssetEvents receives one notification per distinct asset URL
type AssetEvents interface {
	AssetUploaded(ctx context.Context, url, fileID string)
	AssetFailed(ctx context.Context, url string, err error)
}

// AssetService downloads source images, shrinks the large ones and uploads them to the destination.
// Uploads are strictly sequential with a fixed pause between them.
type AssetService struct {
	client      *http.Client
	directus    DirectusClientInterface
	optimizer   *ImageOptimizer
	retry       utils.RetryPolicy
	maxFileSize int64
	uploadDelay time.Duration
	events      AssetEvents
}

// NewAssetService creates a new AssetService
func NewAssetService(
	client *http.Client,
	directus DirectusClientInterface,
	optimizer *ImageOptimizer,
	retry utils.RetryPolicy,
	maxFileSize int64,
	uploadDelay time.Duration,
	events AssetEvents,
) *AssetService {
	return &AssetService{
		client:      client,
		directus:    directus,
		optimizer:   optimizer,
		retry:       retry,
		maxFileSize: maxFileSize,
		uploadDelay: uploadDelay,
		events:      events,
	}
}

// Ensure AssetService implements AssetServiceInterface
var _ AssetServiceInterface = (*AssetService)(nil)

// UploadAll uploads every distinct URL once and returns URL -> file id for the ones that succeeded.
// A URL that still fails after the retry budget is left out of the map.
func (s *AssetService) UploadAll(ctx context.Context, urls []string) models.AssetMap {
	uploaded := make(models.AssetMap, len(urls))
	seen := make(map[string]bool, len(urls))

	log.WithField("count", len(urls)).Info("uploading images to Directus")

	for i, url := range urls {
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		if ctx.Err() != nil {
			log.WithError(ctx.Err()).Warn("upload loop cancelled")
			break
		}

		var fileID string
		err := utils.Retry(ctx, s.retry, func(attempt int) error {
			id, err := s.transfer(ctx, url)
			if err != nil {
				log.WithFields(log.Fields{"url": url, "attempt": attempt}).WithError(err).Warn("image transfer failed")
				return err
			}
			fileID = id
			return nil
		})

		if err != nil {
			log.WithField("url", url).WithError(err).Error("❌ giving up on image")
			if s.events != nil {
				s.events.AssetFailed(ctx, url, err)
			}
		} else {
			uploaded[url] = fileID
			log.WithFields(log.Fields{"url": url, "file_id": fileID}).Info("✓ image uploaded")
			if s.events != nil {
				s.events.AssetUploaded(ctx, url, fileID)
			}
		}

		if i < len(urls)-1 {
			if err := utils.Sleep(ctx, s.uploadDelay); err != nil {
				break
			}
		}
	}

	log.WithFields(log.Fields{
		"uploaded": len(uploaded),
		"total":    len(urls),
	}).Info("image upload finished")
	return uploaded
}

// transfer is one attempt: download, optionally shrink, upload
func (s *AssetService) transfer(ctx context.Context, url string) (string, error) {
	data, contentType, err := s.download(ctx, url)
	if err != nil {
		return "", err
	}

	if int64(len(data)) > s.maxFileSize && s.optimizer != nil {
		log.WithFields(log.Fields{
			"url":  url,
			"size": fmt.Sprintf("%.2fMB", float64(len(data))/1024/1024),
		}).Info("image too large, resizing")

		optimized, err := s.optimizer.Optimize(data)
		if err != nil {
			// the original bytes are still uploadable
			log.WithField("url", url).WithError(err).Warn("resize failed, uploading original")
		} else {
			data = optimized
		}
	}

	fileName := utils.FileNameFromURL(url)
	fileID, err := s.directus.UploadFile(ctx, fileName, contentType, data)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", fileName, err)
	}
	return fileID, nil
}

func (s *AssetService) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &StatusError{Method: http.MethodGet, URL: url, Code: resp.StatusCode, Body: truncateBody(body)}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	return body, contentType, nil
}
