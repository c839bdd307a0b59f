package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"subgen/internal/pipeline"
)

// batchReporter prints one status line per file to out and, when errOut is a
// terminal, keeps a progress bar on errOut between lines.
type batchReporter struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func newBatchReporter(out, errOut io.Writer, total int) *batchReporter {
	r := &batchReporter{out: out}
	if total > 1 && isTerminal(errOut) {
		r.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(errOut),
			progressbar.OptionSetDescription("transcribing"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
	}
	return r
}

func (r *batchReporter) start(index, total int, source string) {
	if r.bar == nil {
		return
	}
	r.bar.Describe(fmt.Sprintf("[%d/%d] %s", index+1, total, filepath.Base(source)))
}

func (r *batchReporter) result(res pipeline.Result) {
	if r.bar != nil {
		_ = r.bar.Clear()
	}
	fmt.Fprintln(r.out, pipeline.StatusLine(res))
	if r.bar != nil {
		_ = r.bar.Add(1)
	}
}

func (r *batchReporter) finish(summary pipeline.Summary) {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	fmt.Fprintln(r.out, pipeline.SummaryLine(summary))
}

func (r *batchReporter) batchOptions(stop <-chan struct{}) pipeline.BatchOptions {
	return pipeline.BatchOptions{
		Stop:     stop,
		OnStart:  r.start,
		OnResult: r.result,
	}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
