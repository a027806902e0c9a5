package dispatch

import (
	"github.com/gogpu/retouch"
	"github.com/gogpu/retouch/op"
)

// Command names.
const (
	CmdOpenImage      = "open_image"
	CmdApplyOperation = "apply_operation"
	CmdUndo           = "undo"
	CmdRedo           = "redo"
	CmdPreview        = "preview"
	CmdExportImage    = "export_image"
	CmdHistoryState   = "history_state"
	CmdClear          = "clear"
)

// OpenImageInput is the payload of open_image.
type OpenImageInput struct {
	FilePath         string `json:"file_path"`
	PreviewMaxWidth  int    `json:"preview_max_width"`
	PreviewMaxHeight int    `json:"preview_max_height"`
}

// OpenImageOutput is the result of open_image.
type OpenImageOutput struct {
	PreviewBase64  string `json:"preview_base64"`
	OriginalWidth  int    `json:"original_width"`
	OriginalHeight int    `json:"original_height"`
	Format         string `json:"format"`
}

// ApplyOperationInput is the payload of apply_operation.
type ApplyOperationInput struct {
	Operation    op.Operation `json:"operation"`
	PreviewWidth *int         `json:"preview_width,omitempty"`
}

// ApplyOperationOutput is the result of apply_operation, undo and redo.
// NewWidth and NewHeight are the full-resolution dimensions after the
// change.
type ApplyOperationOutput struct {
	PreviewBase64 string               `json:"preview_base64"`
	NewWidth      int                  `json:"new_width"`
	NewHeight     int                  `json:"new_height"`
	History       retouch.HistoryState `json:"history"`
}

// HistoryStepInput is the optional payload of undo and redo.
type HistoryStepInput struct {
	PreviewMaxWidth  int `json:"preview_max_width,omitempty"`
	PreviewMaxHeight int `json:"preview_max_height,omitempty"`
}

// PreviewInput is the payload of preview.
type PreviewInput struct {
	Operations []op.Operation `json:"operations"`
	MaxWidth   int            `json:"max_width"`
	MaxHeight  int            `json:"max_height"`
}

// PreviewOutput is the result of preview.
type PreviewOutput struct {
	PreviewBase64 string `json:"preview_base64"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
}

// ExportInput is the payload of export_image. The loaded image's file is
// the source.
type ExportInput struct {
	OutputPath string         `json:"output_path"`
	Operations []op.Operation `json:"operations"`
	Format     string         `json:"format"`
	Quality    *int           `json:"quality,omitempty"`
}

// ExportOutput is the result of export_image.
type ExportOutput struct {
	Success    bool   `json:"success"`
	OutputPath string `json:"output_path"`
	FileSize   int64  `json:"file_size"`
}

// ClearOutput is the result of clear.
type ClearOutput struct {
	Success bool `json:"success"`
}
