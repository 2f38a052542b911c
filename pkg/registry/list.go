package registry

// ListTables returns the cached TableInfo for every live table matching
// filter (nil accepts all). Reads are served entirely from the in-process
// cache under a shared-read lock — the registry never fans out a
// GetView-style call to every actor to answer a list query (§4.5
// Listing).
func (r *Registry) ListTables(filter func(TableInfo) bool) []TableInfo {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	out := make([]TableInfo, 0, len(r.cache))
	for _, entry := range r.cache {
		if filter == nil || filter(entry.TableInfo) {
			out = append(out, entry.TableInfo)
		}
	}
	return out
}

// TableCount reports the number of live (non-reaped) tables.
func (r *Registry) TableCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
