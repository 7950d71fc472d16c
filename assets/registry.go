package assets

import (
	"sort"
	"sync"
)

// Registry is the single source of truth for asset state shown to the user.
// Readers get value copies; all writes go through Set, Merge or Replace.
type Registry struct {
	mu       sync.RWMutex
	assets   Set
	onChange []func(Descriptor)
}

func NewRegistry(seed Set) *Registry {
	if seed == nil {
		seed = DefaultCatalog()
	}
	return &Registry{assets: seed.Clone()}
}

// OnChange registers fn to run after every write, outside the lock.
func (r *Registry) OnChange(fn func(Descriptor)) {
	r.mu.Lock()
	r.onChange = append(r.onChange, fn)
	r.mu.Unlock()
}

func (r *Registry) Get(fileName string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.assets[fileName]
	return d, ok
}

func (r *Registry) Set(fileName string, d Descriptor) {
	d.FileName = fileName
	r.mu.Lock()
	r.assets[fileName] = d
	hooks := r.onChange
	r.mu.Unlock()
	notify(hooks, d)
}

// Merge applies p to the asset. It reports false for an unknown file name.
func (r *Registry) Merge(fileName string, p Patch) bool {
	r.mu.Lock()
	d, ok := r.assets[fileName]
	if !ok {
		r.mu.Unlock()
		return false
	}
	d = p.apply(d)
	r.assets[fileName] = d
	hooks := r.onChange
	r.mu.Unlock()
	notify(hooks, d)
	return true
}

// Replace swaps in a whole reconciled set.
func (r *Registry) Replace(s Set) {
	r.mu.Lock()
	r.assets = s.Clone()
	hooks := r.onChange
	r.mu.Unlock()
	for _, d := range s {
		notify(hooks, d)
	}
}

// All returns a copy of the current set.
func (r *Registry) All() Set {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.assets.Clone()
}

// Snapshot lists the assets in catalog order, then by file name.
func (r *Registry) Snapshot() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.assets))
	seen := make(map[string]bool, len(r.assets))
	for _, name := range CatalogOrder() {
		if d, ok := r.assets[name]; ok {
			out = append(out, d)
			seen[name] = true
		}
	}
	var rest []string
	for name := range r.assets {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		out = append(out, r.assets[name])
	}
	return out
}

func (r *Registry) AnyDownloading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.assets {
		if d.Status.IsActive() {
			return true
		}
	}
	return false
}

// AllCompleted reports whether every named asset is present and completed.
func (r *Registry) AllCompleted(fileNames ...string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range fileNames {
		if d, ok := r.assets[name]; !ok || d.Status != StatusCompleted {
			return false
		}
	}
	return true
}

func notify(hooks []func(Descriptor), d Descriptor) {
	for _, fn := range hooks {
		fn(d)
	}
}
