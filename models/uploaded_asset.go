package models

// AssetMap is the run-wide source URL -> destination file id mapping.
// It only holds URLs whose upload succeeded.
type AssetMap map[string]string

// Resolve returns the destination ids for refs in input order, plus the refs that have no upload.
func (m AssetMap) Resolve(refs []string) (ids []string, missing []string) {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if id, ok := m[ref]; ok {
			ids = append(ids, id)
		} else {
			missing = append(missing, ref)
		}
	}
	return ids, missing
}
