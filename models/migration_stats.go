package models

// MigrationStats holds the summary counters of a run
type MigrationStats struct {
	Fetched      int `json:"fetched"`
	AssetsTotal  int `json:"assetsTotal"`
	Uploaded     int `json:"uploaded"`
	Created      int `json:"created"`
	Updated      int `json:"updated"`
	Failed       int `json:"failed"`
	LinkFailures int `json:"linkFailures"`
}

// AssetsFailed is the number of distinct asset URLs that could not be uploaded
func (s MigrationStats) AssetsFailed() int {
	return s.AssetsTotal - s.Uploaded
}
