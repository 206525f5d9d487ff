package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"

	"kepka-migrator/config"
	"kepka-migrator/models"
)

// StoryblokService reads stories from the source CMS content delivery API
type StoryblokService struct {
	client   *http.Client
	cfg      config.StoryblokConfig
	mappings map[models.RecordKind]*FieldMapping
}

// NewStoryblokService creates a new StoryblokService with the default field mappings
func NewStoryblokService(client *http.Client, cfg config.StoryblokConfig) *StoryblokService {
	return &StoryblokService{
		client: client,
		cfg:    cfg,
		mappings: map[models.RecordKind]*FieldMapping{
			models.KindArtwork:    ArtworkMapping(),
			models.KindPhotoshoot: PhotoshootMapping(),
		},
	}
}

// Ensure StoryblokService implements SourceServiceInterface
var _ SourceServiceInterface = (*StoryblokService)(nil)

type storiesResponse struct {
	Stories []any `json:"stories"`
}

// FetchRecords fetches one collection with a single request and normalizes every story.
// There is no retry here: a failure is returned wrapped in ErrSourceFetch.
func (s *StoryblokService) FetchRecords(ctx context.Context, kind models.RecordKind) ([]models.SourceRecord, error) {
	mapping, ok := s.mappings[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown collection %q", ErrSourceFetch, kind)
	}

	endpoint, err := s.collectionURL(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}

	log.WithField("collection", kind).Info("fetching stories from Storyblok")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrSourceFetch, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceFetch, kind, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrSourceFetch, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// token stays out of the error: the URL is rebuilt without it
		statusErr := &StatusError{Method: http.MethodGet, URL: s.redactedURL(kind), Code: resp.StatusCode, Body: truncateBody(body)}
		return nil, fmt.Errorf("%w: %w", ErrSourceFetch, statusErr)
	}

	var parsed storiesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to decode stories: %w", ErrSourceFetch, err)
	}

	records := make([]models.SourceRecord, 0, len(parsed.Stories))
	for _, story := range parsed.Stories {
		records = append(records, mapping.Apply(kind, story))
	}

	log.WithFields(log.Fields{
		"collection": kind,
		"count":      len(records),
	}).Info("stories fetched")
	return records, nil
}

func (s *StoryblokService) prefix(kind models.RecordKind) string {
	if kind == models.KindArtwork {
		return s.cfg.ArtworksPrefix
	}
	return s.cfg.PhotoshootsPrefix
}

func (s *StoryblokService) collectionURL(kind models.RecordKind) (string, error) {
	u, err := url.Parse(s.cfg.APIURL)
	if err != nil {
		return "", fmt.Errorf("invalid source URL: %w", err)
	}

	q := u.Query()
	q.Set("starts_with", s.prefix(kind))
	q.Set("version", s.cfg.Version)
	q.Set("token", s.cfg.Token)
	if s.cfg.CacheVersion != "" {
		q.Set("cv", s.cfg.CacheVersion)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *StoryblokService) redactedURL(kind models.RecordKind) string {
	return fmt.Sprintf("%s?starts_with=%s", s.cfg.APIURL, url.QueryEscape(s.prefix(kind)))
}
