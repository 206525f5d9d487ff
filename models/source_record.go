package models

// RecordKind identifies which source collection a record came from
type RecordKind string

const (
	// KindArtwork is a single-asset record (painting with one cover image)
	KindArtwork RecordKind = "artwork"
	// KindPhotoshoot is a multi-asset record (gallery of images)
	KindPhotoshoot RecordKind = "photoshoot"
)

// SourceRecord is a normalized story read from the source CMS.
// Artworks carry at most one entry in AssetRefs.
type SourceRecord struct {
	ExternalID  string     `json:"externalId"`
	Kind        RecordKind `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedAt   string     `json:"createdAt"`
	Slug        string     `json:"slug"`
	AssetRefs   []string   `json:"assetRefs"`
}

// TruncateAssets keeps only the first max asset refs. A max of zero or less keeps everything.
// Returns the number of refs dropped.
func (r *SourceRecord) TruncateAssets(max int) int {
	if max <= 0 || len(r.AssetRefs) <= max {
		return 0
	}
	dropped := len(r.AssetRefs) - max
	r.AssetRefs = r.AssetRefs[:max]
	return dropped
}
