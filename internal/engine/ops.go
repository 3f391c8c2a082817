package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/marcus/storeconf/internal/models"
	"github.com/marcus/storeconf/internal/remote"
	"github.com/marcus/storeconf/internal/store"
)

// Mutation kind tags. Kinds group related saves for undo bookkeeping.
const (
	KindGeneral       = "general"
	KindSections      = "sections"
	kindSectionPrefix = "section:"
	kindAssetPrefix   = "asset:"
)

// Document paths the upload response folds into, per asset type.
var assetPaths = map[string]string{
	"logo":         "branding.logo",
	"favicon":      "branding.favicon",
	"menuImage":    "branding.menuImage",
	"landingImage": "systemSettings.landing.hero.image",
}

// SaveGeneral saves top-level fields as a partial full-document PUT.
func (e *Engine) SaveGeneral(ctx context.Context, partial models.Document) Outcome {
	op, err := remote.PutConfig(partial)
	if err != nil {
		return Outcome{Err: err}
	}
	return e.Mutate(ctx, Mutation{
		Kind:      KindGeneral,
		Path:      "",
		Operation: op,
		Optimistic: func(s *store.Store) {
			s.Merge(partial)
		},
	})
}

// SaveSection saves one named settings section (e.g. "landing").
func (e *Engine) SaveSection(ctx context.Context, name string, payload models.Document) Outcome {
	op, err := remote.PutSection(name, payload)
	if err != nil {
		return Outcome{Err: err}
	}
	path := "systemSettings." + name
	return e.Mutate(ctx, Mutation{
		Kind:      kindSectionPrefix + name,
		Path:      path,
		Operation: op,
		Optimistic: func(s *store.Store) {
			s.SetRegion(path, payload)
		},
	})
}

// SaveSections saves the entire sections tree.
func (e *Engine) SaveSections(ctx context.Context, sections models.Document) Outcome {
	op, err := remote.PutSections(sections)
	if err != nil {
		return Outcome{Err: err}
	}
	return e.Mutate(ctx, Mutation{
		Kind:      KindSections,
		Path:      "systemSettings",
		Operation: op,
		Optimistic: func(s *store.Store) {
			s.SetRegion("systemSettings", sections)
		},
		Reconcile: func(s *store.Store, body json.RawMessage) error {
			if len(body) == 0 {
				return nil
			}
			var resp struct {
				Sections models.Document `json:"sections"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("decode sections response: %w", err)
			}
			if resp.Sections != nil {
				s.SetRegion("systemSettings", resp.Sections)
			}
			return nil
		},
	})
}

// UploadAsset uploads a logo, favicon, menu image, or landing image. There
// is no meaningful optimistic patch (the URL is server-assigned); on success
// the returned URL lands in the asset's document field and any document
// fragment in the response merges at the root.
func (e *Engine) UploadAsset(ctx context.Context, assetType, filename string, data []byte) Outcome {
	op, err := remote.UploadAsset(assetType, filename, data)
	if err != nil {
		return Outcome{Err: err}
	}
	path := assetPaths[assetType]
	return e.Mutate(ctx, Mutation{
		Kind:      kindAssetPrefix + assetType,
		Path:      path,
		Operation: op,
		Reconcile: func(s *store.Store, body json.RawMessage) error {
			var result remote.UploadResult
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("decode upload response: %w", err)
			}
			if result.URL != "" && path != "" {
				s.SetRegion(path, result.URL)
			}
			if result.Document != nil {
				s.Merge(result.Document)
			}
			return nil
		},
	})
}

// ToggleFlag flips a named boolean flag on a list-valued resource item: a
// service, payment method, or integration enabled state.
func (e *Engine) ToggleFlag(ctx context.Context, resource, id string, enabled bool) Outcome {
	op, err := remote.ToggleItem(resource, id, enabled)
	if err != nil {
		return Outcome{Err: err}
	}
	return e.Mutate(ctx, Mutation{
		Kind:      resource,
		Path:      resource,
		Operation: op,
		Optimistic: func(s *store.Store) {
			updateListItem(s, resource, id, func(item models.Document) {
				item["enabled"] = enabled
			})
		},
		Reconcile: reconcileResource(resource),
	})
}

// CreateItem appends an item to a list-valued resource (faqs,
// paymentMethods). The optimistic entry carries the caller's payload; the
// server's echo (with its assigned id) replaces it on success.
func (e *Engine) CreateItem(ctx context.Context, resource string, payload models.Document) Outcome {
	op, err := remote.CreateItem(resource, payload)
	if err != nil {
		return Outcome{Err: err}
	}
	return e.Mutate(ctx, Mutation{
		Kind:      resource,
		Path:      resource,
		Operation: op,
		Optimistic: func(s *store.Store) {
			list := resourceList(s, resource)
			s.SetRegion(resource, append(list, payload.Clone()))
		},
		Reconcile: reconcileResource(resource),
	})
}

// UpdateItem replaces one item of a list-valued resource.
func (e *Engine) UpdateItem(ctx context.Context, resource, id string, payload models.Document) Outcome {
	op, err := remote.UpdateItem(resource, id, payload)
	if err != nil {
		return Outcome{Err: err}
	}
	return e.Mutate(ctx, Mutation{
		Kind:      resource,
		Path:      resource,
		Operation: op,
		Optimistic: func(s *store.Store) {
			updateListItem(s, resource, id, func(item models.Document) {
				for k, v := range payload {
					item[k] = models.CopyValue(v)
				}
			})
		},
		Reconcile: reconcileResource(resource),
	})
}

// DeleteItem removes one item of a list-valued resource.
func (e *Engine) DeleteItem(ctx context.Context, resource, id string) Outcome {
	return e.Mutate(ctx, Mutation{
		Kind:      resource,
		Path:      resource,
		Operation: remote.DeleteItem(resource, id),
		Optimistic: func(s *store.Store) {
			list := resourceList(s, resource)
			out := list[:0]
			for _, item := range list {
				if itemID(item) != id {
					out = append(out, item)
				}
			}
			s.SetRegion(resource, out)
		},
		Reconcile: reconcileResource(resource),
	})
}

// reconcileResource folds a resource response into the store: a list
// replaces the region, a single item upserts into it by id, and an object
// keyed by the resource name merges at the root.
func reconcileResource(resource string) func(*store.Store, json.RawMessage) error {
	return func(s *store.Store, body json.RawMessage) error {
		if len(body) == 0 {
			return nil
		}
		var parsed any
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("decode %s response: %w", resource, err)
		}
		switch val := parsed.(type) {
		case []any:
			s.SetRegion(resource, val)
		case map[string]any:
			doc := models.Document(val)
			if nested, ok := doc.Get(resource); ok {
				if list, ok := nested.([]any); ok {
					s.SetRegion(resource, list)
					return nil
				}
			}
			upsertListItem(s, resource, doc)
		}
		return nil
	}
}

func resourceList(s *store.Store, resource string) []any {
	region, ok := s.Region(resource)
	if !ok {
		return nil
	}
	list, _ := region.([]any)
	return list
}

func itemID(item any) string {
	doc, ok := item.(models.Document)
	if !ok {
		if m, isMap := item.(map[string]any); isMap {
			doc = models.Document(m)
		} else {
			return ""
		}
	}
	switch id := doc["id"].(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%v", id)
	default:
		return ""
	}
}

func updateListItem(s *store.Store, resource, id string, fn func(models.Document)) {
	list := resourceList(s, resource)
	for _, item := range list {
		if itemID(item) != id {
			continue
		}
		if doc, ok := item.(models.Document); ok {
			fn(doc)
		} else if m, ok := item.(map[string]any); ok {
			fn(models.Document(m))
		}
	}
	s.SetRegion(resource, list)
}

func upsertListItem(s *store.Store, resource string, item models.Document) {
	id := itemID(item)
	list := resourceList(s, resource)
	for i, existing := range list {
		if id != "" && itemID(existing) == id {
			list[i] = item
			s.SetRegion(resource, list)
			return
		}
	}
	// No id match: the echo is for the most recent optimistic append.
	if n := len(list); n > 0 && itemID(list[n-1]) == "" {
		list[n-1] = item
	} else {
		list = append(list, item)
	}
	s.SetRegion(resource, list)
}
