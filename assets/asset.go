// Package assets keeps the bookkeeping of the model files the engine needs:
// the in-memory registry, reconciliation against the persisted set and the
// model directory, and download progress tracking.
package assets

import "errors"

var ErrUnknownAsset = errors.New("unknown asset")

// DownloadFailedMessage is shown on an asset whose download could not start.
const DownloadFailedMessage = "下载失败，请重试"

type Descriptor struct {
	Name        string  `json:"name"`
	FileName    string  `json:"fileName"`
	Description string  `json:"description"`
	URL         string  `json:"url"`
	Status      Status  `json:"status"`
	Progress    float64 `json:"progress"`
	Error       string  `json:"error,omitempty"`
}

// Set maps file name to descriptor.
type Set map[string]Descriptor

func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Patch is a field-level partial update. Nil fields are left alone.
type Patch struct {
	Status   *Status
	Progress *float64
	Error    *string
}

func (p Patch) apply(d Descriptor) Descriptor {
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.Progress != nil {
		d.Progress = *p.Progress
	}
	if p.Error != nil {
		d.Error = *p.Error
	}
	return d
}

// StatusPatch sets status, progress and error together.
func StatusPatch(s Status, progress float64, errMsg string) Patch {
	return Patch{Status: &s, Progress: &progress, Error: &errMsg}
}

func ProgressPatch(progress float64) Patch {
	return Patch{Progress: &progress}
}

const (
	TranscribeModel = "ggml-base-q5_1.bin"
	TranslateModel  = "opus-mt-en-zh.bin"
)

var catalog = []Descriptor{
	{
		Name:        "转录模型",
		FileName:    TranscribeModel,
		Description: "whisper ggml base-q5_1",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base-q5_1.bin",
		Status:      StatusIdle,
	},
	{
		Name:        "翻译模型",
		FileName:    TranslateModel,
		Description: "opus-mt-en-zh",
		URL:         "https://huggingface.co/Helsinki-NLP/opus-mt-en-zh/resolve/refs%2Fpr%2F26/model.safetensors",
		Status:      StatusIdle,
	},
}

// DefaultCatalog returns a fresh copy of the built-in asset set.
func DefaultCatalog() Set {
	s := make(Set, len(catalog))
	for _, d := range catalog {
		s[d.FileName] = d
	}
	return s
}

// CatalogOrder lists the built-in file names in display order.
func CatalogOrder() []string {
	names := make([]string, len(catalog))
	for i, d := range catalog {
		names[i] = d.FileName
	}
	return names
}
