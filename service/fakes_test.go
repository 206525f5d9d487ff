package service

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"kepka-migrator/config"
	"kepka-migrator/models"
	"kepka-migrator/utils"
)

// fakeUpload is one file received by the fake destination
type fakeUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// fakeDirectus is an in-memory destination CMS served over HTTP
type fakeDirectus struct {
	mu       sync.Mutex
	nextID   int
	items    map[string][]map[string]any
	uploads  []fakeUpload
	requests []string
	auth     []string

	failUpload func(name string) bool
	failCreate func(collection string, payload map[string]any) bool
	failList   func(collection string) bool
	failDelete func(collection, id string) bool

	server *httptest.Server
}

func newFakeDirectus(t *testing.T) *fakeDirectus {
	t.Helper()
	f := &fakeDirectus{items: make(map[string][]map[string]any)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /files", f.handleUpload)
	mux.HandleFunc("GET /items/{collection}", f.handleList)
	mux.HandleFunc("POST /items/{collection}", f.handleCreate)
	mux.HandleFunc("PATCH /items/{collection}/{id}", f.handleUpdate)
	mux.HandleFunc("DELETE /items/{collection}/{id}", f.handleDelete)

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeDirectus) URL() string {
	return f.server.URL
}

func (f *fakeDirectus) client() *DirectusClient {
	return NewDirectusClient(f.server.Client(), f.server.URL, "test-token")
}

// seed stores an item directly and returns its id
func (f *fakeDirectus) seed(collection string, fields map[string]any) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	item := map[string]any{"id": f.nextID}
	for k, v := range fields {
		item[k] = v
	}
	f.items[collection] = append(f.items[collection], item)
	return f.nextID
}

// list returns a copy of a collection's items
func (f *fakeDirectus) list(collection string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.items[collection]))
	for _, item := range f.items[collection] {
		c := make(map[string]any, len(item))
		for k, v := range item {
			c[k] = v
		}
		out = append(out, c)
	}
	return out
}

// linkedFiles returns the sorted file ids linked to recordID
func (f *fakeDirectus) linkedFiles(collection, recordField, fileField string, recordID any) []string {
	var files []string
	for _, item := range f.list(collection) {
		if fmt.Sprint(item[recordField]) == fmt.Sprint(recordID) {
			files = append(files, fmt.Sprint(item[fileField]))
		}
	}
	sort.Strings(files)
	return files
}

func (f *fakeDirectus) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func (f *fakeDirectus) countRequests(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeDirectus) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, _ := io.ReadAll(file)

	if f.failUpload != nil && f.failUpload(header.Filename) {
		http.Error(w, `{"errors":[{"message":"storage unavailable"}]}`, http.StatusServiceUnavailable)
		return
	}

	f.mu.Lock()
	f.uploads = append(f.uploads, fakeUpload{Name: header.Filename, ContentType: header.Header.Get("Content-Type"), Data: data})
	id := fmt.Sprintf("file-%d", len(f.uploads))
	f.mu.Unlock()

	writeData(w, http.StatusOK, map[string]any{"id": id, "filename_download": header.Filename})
}

func (f *fakeDirectus) handleList(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	if f.failList != nil && f.failList(collection) {
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}

	field, value := "", ""
	for key, values := range r.URL.Query() {
		if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "][_eq]") {
			field = strings.TrimSuffix(strings.TrimPrefix(key, "filter["), "][_eq]")
			value = values[0]
		}
	}

	result := []map[string]any{}
	for _, item := range f.list(collection) {
		if field == "" || fmt.Sprint(item[field]) == value {
			result = append(result, item)
		}
	}
	writeData(w, http.StatusOK, result)
}

func (f *fakeDirectus) handleCreate(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if f.failCreate != nil && f.failCreate(collection, payload) {
		http.Error(w, `{"errors":[{"message":"invalid payload"}]}`, http.StatusBadRequest)
		return
	}

	id := f.seed(collection, payload)
	for _, item := range f.list(collection) {
		if fmt.Sprint(item["id"]) == fmt.Sprint(id) {
			writeData(w, http.StatusOK, item)
			return
		}
	}
}

func (f *fakeDirectus) handleUpdate(w http.ResponseWriter, r *http.Request) {
	collection, id := r.PathValue("collection"), r.PathValue("id")
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items[collection] {
		if fmt.Sprint(item["id"]) == id {
			for k, v := range payload {
				item[k] = v
			}
			writeData(w, http.StatusOK, item)
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func (f *fakeDirectus) handleDelete(w http.ResponseWriter, r *http.Request) {
	collection, id := r.PathValue("collection"), r.PathValue("id")
	if f.failDelete != nil && f.failDelete(collection, id) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.items[collection]
	for i, item := range items {
		if fmt.Sprint(item["id"]) == id {
			f.items[collection] = append(items[:i:i], items[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

// fakeImages serves image bytes and counts downloads per path
type fakeImages struct {
	mu     sync.Mutex
	hits   map[string]int
	body   map[string][]byte
	failN  map[string]int // path -> number of initial requests that fail
	server *httptest.Server
}

func newFakeImages(t *testing.T) *fakeImages {
	t.Helper()
	f := &fakeImages{hits: map[string]int{}, body: map[string][]byte{}, failN: map[string]int{}}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.URL.Path]++
		hit := f.hits[r.URL.Path]
		fail := f.failN[r.URL.Path]
		body, ok := f.body[r.URL.Path]
		f.mu.Unlock()

		if fail < 0 || hit <= fail {
			http.Error(w, "temporarily unavailable", http.StatusBadGateway)
			return
		}
		if !ok {
			body = []byte("image-bytes:" + r.URL.Path)
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(body)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeImages) url(path string) string {
	return f.server.URL + path
}

// alwaysFail makes every request for path fail
func (f *fakeImages) alwaysFail(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failN[path] = -1
}

func (f *fakeImages) failFirst(path string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failN[path] = n
}

func (f *fakeImages) setBody(path string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body[path] = data
}

func (f *fakeImages) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

// fakeStoryblok serves one JSON document per starts_with prefix
type fakeStoryblok struct {
	mu      sync.Mutex
	docs    map[string]string
	fail    map[string]bool
	queries []map[string]string
	server  *httptest.Server
}

func newFakeStoryblok(t *testing.T) *fakeStoryblok {
	t.Helper()
	f := &fakeStoryblok{docs: map[string]string{}, fail: map[string]bool{}}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := map[string]string{}
		for k, v := range r.URL.Query() {
			q[k] = v[0]
		}
		prefix := q["starts_with"]

		f.mu.Lock()
		f.queries = append(f.queries, q)
		doc, ok := f.docs[prefix]
		fail := f.fail[prefix]
		f.mu.Unlock()

		if fail {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !ok {
			doc = `{"stories":[]}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeStoryblok) set(prefix, doc string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[prefix] = doc
}

func (f *fakeStoryblok) setFail(prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[prefix] = true
}

func (f *fakeStoryblok) apiURL() string {
	return f.server.URL + "/v2/cdn/stories/"
}

// testConfig returns a configuration pointed at the fakes with every delay disabled
func testConfig(storyblokURL, directusURL string) config.Config {
	return config.Config{
		Storyblok: config.StoryblokConfig{
			Token:             "sb-token",
			APIURL:            storyblokURL,
			ArtworksPrefix:    "paintings/",
			PhotoshootsPrefix: "sesje/",
			Version:           "published",
		},
		Directus: config.DirectusConfig{
			URL:                   directusURL,
			Token:                 "test-token",
			ArtworksCollection:    "kepka_artworks",
			PhotoshootsCollection: "kepka_shoots",
			PhotoshootFiles:       "kepka_shoots_files",
			JunctionRecordField:   "kepka_shoots_id",
			JunctionFileField:     "directus_files_id",
			ArtworkCoverField:     "cover",
		},
		Migration: config.MigrationConfig{
			MaxRetries:             2,
			MaxImagesPerPhotoshoot: 5,
			ProcessArtworks:        true,
			UpdateExisting:         true,
		},
		Images: config.ImageConfig{
			MaxWidth:    1200,
			MaxHeight:   1200,
			MaxFileSize: 4 * 1024 * 1024,
			Quality:     80,
		},
		HTTP:    config.HTTPConfig{Timeout: 5 * time.Second},
		Logger:  config.LoggerConfig{Level: "info", Format: "text"},
		Metrics: config.MetricsConfig{JobName: "kepka_migration"},
	}
}

// noopMetrics satisfies MetricsRecorderInterface
type noopMetrics struct{}

func (noopMetrics) RecordsFetched(string, int)     {}
func (noopMetrics) ItemProcessed(string, string)   {}
func (noopMetrics) AssetProcessed(string)          {}
func (noopMetrics) LinksReconciled(string, string) {}
func (noopMetrics) Completed()                     {}

func testRetry() utils.RetryPolicy {
	return utils.RetryPolicy{MaxRetries: 2}
}

func record(slug, title string, refs ...string) models.SourceRecord {
	return models.SourceRecord{
		Kind:        models.KindPhotoshoot,
		Title:       title,
		Description: "desc " + title,
		CreatedAt:   "2024-03-01T10:00:00.000Z",
		Slug:        slug,
		AssetRefs:   refs,
	}
}
