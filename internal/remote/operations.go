package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/url"

	"github.com/marcus/storeconf/internal/models"
)

// Asset types accepted by the upload endpoint, each with its multipart form
// field name.
var assetFields = map[string]string{
	"logo":         "logo",
	"favicon":      "favicon",
	"menuImage":    "menu",
	"landingImage": "image",
}

// UploadResult is the response body from an asset upload.
type UploadResult struct {
	URL      string          `json:"url"`
	Document models.Document `json:"document,omitempty"`
}

// GetConfig fetches the full configuration document.
func GetConfig() Operation {
	return Operation{Method: "GET", URL: "/config"}
}

// PutConfig saves general (top-level) fields as a partial document.
func PutConfig(partial models.Document) (Operation, error) {
	payload, err := json.Marshal(partial)
	if err != nil {
		return Operation{}, fmt.Errorf("marshal config payload: %w", err)
	}
	return Operation{Method: "PUT", URL: "/config", Payload: payload}, nil
}

// PutSection saves one named settings section.
func PutSection(name string, payload models.Document) (Operation, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Operation{}, fmt.Errorf("marshal section %s: %w", name, err)
	}
	return Operation{
		Method:  "PUT",
		URL:     "/config/sections/" + url.PathEscape(name),
		Payload: body,
	}, nil
}

// PutSections saves the entire sections tree.
func PutSections(sections models.Document) (Operation, error) {
	body, err := json.Marshal(models.Document{"sections": sections})
	if err != nil {
		return Operation{}, fmt.Errorf("marshal sections tree: %w", err)
	}
	return Operation{Method: "PUT", URL: "/config/sections", Payload: body}, nil
}

// UploadAsset builds a multipart upload for a logo, favicon, menu image, or
// landing image. The multipart body is encoded up front so the operation can
// be persisted and replayed from the offline queue like any other write.
func UploadAsset(assetType, filename string, data []byte) (Operation, error) {
	field, ok := assetFields[assetType]
	if !ok {
		return Operation{}, fmt.Errorf("unknown asset type %q", assetType)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return Operation{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return Operation{}, fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return Operation{}, fmt.Errorf("close multipart writer: %w", err)
	}

	return Operation{
		Method:  "POST",
		URL:     "/config/upload/" + url.PathEscape(assetType),
		Payload: buf.Bytes(),
		Headers: map[string]string{"Content-Type": w.FormDataContentType()},
	}, nil
}

// CreateItem adds an item to a list-valued resource (faqs, paymentMethods).
func CreateItem(resource string, payload models.Document) (Operation, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Operation{}, fmt.Errorf("marshal %s item: %w", resource, err)
	}
	return Operation{
		Method:  "POST",
		URL:     "/config/" + url.PathEscape(resource),
		Payload: body,
	}, nil
}

// UpdateItem replaces one item of a list-valued resource.
func UpdateItem(resource, id string, payload models.Document) (Operation, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Operation{}, fmt.Errorf("marshal %s item: %w", resource, err)
	}
	return Operation{
		Method:  "PUT",
		URL:     "/config/" + url.PathEscape(resource) + "/" + url.PathEscape(id),
		Payload: body,
	}, nil
}

// DeleteItem removes one item of a list-valued resource.
func DeleteItem(resource, id string) Operation {
	return Operation{
		Method: "DELETE",
		URL:    "/config/" + url.PathEscape(resource) + "/" + url.PathEscape(id),
	}
}

// ToggleItem flips a named boolean flag (service, payment method, or
// integration enabled state).
func ToggleItem(resource, id string, enabled bool) (Operation, error) {
	body, err := json.Marshal(map[string]bool{"enabled": enabled})
	if err != nil {
		return Operation{}, fmt.Errorf("marshal toggle: %w", err)
	}
	return Operation{
		Method:  "POST",
		URL:     "/config/" + url.PathEscape(resource) + "/" + url.PathEscape(id) + "/toggle",
		Payload: body,
	}, nil
}
