// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package sampler

import (
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
)

// ProgressbarStyle to use. Defaults to the ASCII version.
// Consider "progressbar.ThemeUnicode" for a prettier version.
var ProgressbarStyle = progressbar.ThemeASCII

// ProgressWriter is where the progress bar is displayed, when enabled with WithProgressBar.
var ProgressWriter io.Writer = os.Stderr

// progress over the sites of one call to NextBatch. A nil bar means no progress is displayed.
type progress struct {
	bar *progressbar.ProgressBar
}

func newProgress(enabled bool, numSites int, id uuid.UUID) progress {
	if !enabled {
		return progress{}
	}
	return progress{bar: progressbar.NewOptions(numSites,
		progressbar.OptionSetDescription("sampling "+humanize.Comma(int64(numSites))+" sites ["+id.String()[:8]+"]"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("sites"),
		progressbar.OptionSetTheme(ProgressbarStyle),
		progressbar.OptionSetWriter(ProgressWriter),
	)}
}

func (p progress) Add(amount int) {
	if p.bar != nil {
		_ = p.bar.Add(amount)
	}
}

func (p progress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
