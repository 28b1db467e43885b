package service

import (
	"context"
	"encoding/json"

	"ocrjobs/internal/platform/store"
	dom "ocrjobs/internal/services/ocrjobs/domain"
	"ocrjobs/internal/services/ocrjobs/guard"
)

// Prefs stores per requester recognition defaults without expiry
type Prefs struct {
	kv   store.KV
	keys guard.Keys
}

// NewPrefs builds a Prefs over kv
func NewPrefs(kv store.KV, keys guard.Keys) *Prefs { return &Prefs{kv: kv, keys: keys} }

// DefaultOptions apply to requesters who never changed a setting
func DefaultOptions() dom.Options {
	return dom.Options{Languages: []string{"eng"}, UseCloudOCR: true}
}

// Get returns stored options or the defaults
func (p *Prefs) Get(ctx context.Context, requesterID string) (dom.Options, error) {
	raw, ok, err := p.kv.Get(ctx, p.keys.Prefs(requesterID))
	if err != nil {
		return DefaultOptions(), err
	}
	if !ok {
		return DefaultOptions(), nil
	}
	o := DefaultOptions()
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return DefaultOptions(), err
	}
	if len(o.Languages) == 0 {
		o.Languages = DefaultOptions().Languages
	}
	return o, nil
}

func (p *Prefs) put(ctx context.Context, requesterID string, o dom.Options) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return p.kv.Set(ctx, p.keys.Prefs(requesterID), string(b), 0)
}

// Set normalizes and stores o as the requester's defaults
func (p *Prefs) Set(ctx context.Context, requesterID string, o dom.Options) (dom.Options, error) {
	o, err := o.Normalized()
	if err != nil {
		return dom.Options{}, err
	}
	return o, p.put(ctx, requesterID, o)
}

// SetLanguages validates and stores languages, returning the normalized list
func (p *Prefs) SetLanguages(ctx context.Context, requesterID string, codes []string) ([]string, error) {
	o, err := p.Get(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	o.Languages = codes
	if o, err = o.Normalized(); err != nil {
		return nil, err
	}
	return o.Languages, p.put(ctx, requesterID, o)
}

// ToggleCloud flips cloud OCR and returns the new value
func (p *Prefs) ToggleCloud(ctx context.Context, requesterID string) (bool, error) {
	o, err := p.Get(ctx, requesterID)
	if err != nil {
		return false, err
	}
	o.UseCloudOCR = !o.UseCloudOCR
	return o.UseCloudOCR, p.put(ctx, requesterID, o)
}
