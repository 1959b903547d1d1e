package main

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"mkvbatch/internal/progress"
)

// consumeProgress reads ch until it closes and returns the terminal
// snapshot. Terminals get a progress bar; other writers get one line per
// message.
func consumeProgress(out io.Writer, ch *progress.Channel, total int) progress.Snapshot {
	var bar *progressbar.ProgressBar
	if isTerminal(out) {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Merging"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
	}

	var last progress.Snapshot
	for msg := range ch.Messages() {
		last = msg.Snapshot
		if msg.Terminal() {
			continue
		}
		if bar == nil {
			fmt.Fprintln(out, msg.Snapshot.Message)
			continue
		}
		bar.Describe(msg.Snapshot.Filename)
		_ = bar.Set(msg.Snapshot.Current - 1)
	}

	if bar != nil {
		if last.State == progress.StateCompleted {
			_ = bar.Finish()
		} else {
			_ = bar.Exit()
			fmt.Fprintln(out)
		}
	}
	return last
}
