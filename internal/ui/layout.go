package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width to show secondary columns.
	LayoutWideWidth = 130
)

// Sizes.
const (
	// ModalWidth is the inner width of dialogs.
	ModalWidth = 44

	// MaxPageSize bounds the page size keys.
	MaxPageSize = 50

	// PageSizeStep is how much the page size keys change it.
	PageSizeStep = 5

	// headerLines and footerLines are reserved around the content area.
	headerLines = 1
	footerLines = 2
)

// Timing constants.
const (
	// RequestTimeout bounds every backend call started from the UI.
	RequestTimeout = 15 * time.Second

	// FlashDuration is how long status messages stay visible.
	FlashDuration = 5 * time.Second
)
