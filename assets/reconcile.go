package assets

import (
	"context"

	"peeches/log"
)

// Verifier reports which asset files exist in the model directory.
type Verifier interface {
	Verify(ctx context.Context, fileNames []string) (map[string]bool, error)
}

// Reconciler resolves the registry, the persisted set and the model
// directory into one consistent set. The filesystem wins.
type Reconciler struct {
	Registry  *Registry
	Verifier  Verifier
	Persisted *Persisted
	Catalog   Set // nil means DefaultCatalog
}

// Scan is what a reconciliation read from the store and the model directory.
type Scan struct {
	Records   Records
	LoadErr   error
	Exists    map[string]bool
	VerifyErr error
}

// Reconcile never fails: collaborator errors are logged and the best known
// set is still published to the registry. It scans, applies and saves in one
// go, so it must run where the tracker runs.
func (r *Reconciler) Reconcile(ctx context.Context) Set {
	set, save := r.Apply(r.Scan(ctx))
	if save != nil {
		r.Save(ctx, save)
	}
	return set
}

func (r *Reconciler) catalog() Set {
	if r.Catalog == nil {
		return DefaultCatalog()
	}
	return r.Catalog
}

// Scan loads the persisted set and checks the model directory. It only reads,
// so it may run off the loop.
func (r *Reconciler) Scan(ctx context.Context) Scan {
	var sc Scan
	sc.Records, sc.LoadErr = r.Persisted.Load(ctx)
	if sc.LoadErr != nil {
		log.Warnf("reconcile: %v", sc.LoadErr)
	}
	if r.Verifier == nil {
		return sc
	}
	catalog := r.catalog()
	names := make([]string, 0, len(catalog)+len(sc.Records))
	for name := range catalog {
		names = append(names, name)
	}
	for name := range sc.Records {
		if _, ok := catalog[name]; !ok {
			names = append(names, name)
		}
	}
	sc.Exists, sc.VerifyErr = r.Verifier.Verify(ctx, names)
	if sc.VerifyErr != nil {
		log.Warnf("reconcile: verify failed: %v", sc.VerifyErr)
	}
	return sc
}

// Apply publishes the scan to the registry. Assets that are downloading keep
// their registry entry and get no correction. save is the set to persist, or
// nil when nothing changed or the store could not be read.
func (r *Reconciler) Apply(sc Scan) (set, save Set) {
	set = Overlay(r.catalog(), sc.Records)
	active := make(map[string]Descriptor)
	for name := range set {
		if d, ok := r.Registry.Get(name); ok && d.Status.IsActive() {
			active[name] = d
		}
	}

	changed := false
	if r.Verifier != nil && sc.VerifyErr == nil {
		for name, d := range set {
			if _, busy := active[name]; busy {
				continue
			}
			found := sc.Exists[name]
			switch {
			case d.Status == StatusCompleted && !found:
				d.Status, d.Progress, d.Error = StatusIdle, 0, ""
			case d.Status == StatusIdle && found:
				d.Status, d.Progress = StatusCompleted, 100
			default:
				continue
			}
			log.AssetReconciled(name, set[name].Status.String(), d.Status.String(), found)
			set[name] = d
			changed = true
		}
	}
	if changed && sc.LoadErr == nil {
		save = set.Clone()
	}

	for name, d := range active {
		set[name] = d
	}
	r.Registry.Replace(set)
	return set, save
}

// Save writes a reconciled set. Failures are logged.
func (r *Reconciler) Save(ctx context.Context, set Set) {
	if err := r.Persisted.Save(ctx, set); err != nil {
		log.Warnf("reconcile: %v", err)
	}
}
