package assets

import (
	"context"
	"encoding/json"
	"fmt"

	"peeches/log"
)

// PersistKey is the store key holding the whole descriptor set.
const PersistKey = "models"

// Store is the durable key/value collaborator.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Records is the persisted set before it is overlaid on a base descriptor,
// so fields missing from a record keep their base value.
type Records map[string]json.RawMessage

// Persisted reads and writes the descriptor set as one JSON object.
type Persisted struct {
	store Store
	key   string
}

func NewPersisted(s Store) *Persisted {
	return &Persisted{store: s, key: PersistKey}
}

// Load returns the stored records. An absent key yields an empty map.
func (p *Persisted) Load(ctx context.Context) (Records, error) {
	recs := Records{}
	if p == nil || p.store == nil {
		return recs, nil
	}
	raw, ok, err := p.store.Get(ctx, p.key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", p.key, err)
	}
	if !ok || len(raw) == 0 {
		return recs, nil
	}
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", p.key, err)
	}
	return recs, nil
}

func (p *Persisted) Save(ctx context.Context, s Set) error {
	recs := make(Records, len(s))
	for name, d := range s {
		b, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		recs[name] = b
	}
	return p.saveRecords(ctx, recs)
}

// Put merges d into the stored set and writes the whole set back.
func (p *Persisted) Put(ctx context.Context, d Descriptor) error {
	recs, err := p.Load(ctx)
	if err != nil {
		return err
	}
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.FileName, err)
	}
	recs[d.FileName] = b
	return p.saveRecords(ctx, recs)
}

func (p *Persisted) saveRecords(ctx context.Context, recs Records) error {
	if p == nil || p.store == nil {
		return nil
	}
	raw, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode %s: %w", p.key, err)
	}
	if err := p.store.Set(ctx, p.key, raw); err != nil {
		return fmt.Errorf("save %s: %w", p.key, err)
	}
	return nil
}

// Overlay lays each record over its base descriptor field by field. Records
// for file names outside base are kept. Undecodable records are skipped.
func Overlay(base Set, recs Records) Set {
	out := base.Clone()
	for name, raw := range recs {
		d, ok := out[name]
		if !ok {
			d = Descriptor{FileName: name, Status: StatusIdle}
		}
		if err := json.Unmarshal(raw, &d); err != nil {
			log.Warnf("skip persisted asset %s: %v", name, err)
			continue
		}
		d.FileName = name
		out[name] = d
	}
	return out
}
