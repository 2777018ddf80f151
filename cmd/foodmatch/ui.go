package main

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
)

var (
	headline = color.New(color.FgCyan, color.Bold)
	good     = color.New(color.FgGreen)
	caution  = color.New(color.FgYellow)
	faint    = color.New(color.Faint)
)

func step(n, total int, msg string) {
	headline.Fprintf(os.Stderr, "\n[%d/%d] %s\n", n, total, msg)
}

func info(format string, args ...any) {
	faint.Fprintf(os.Stderr, "  "+format+"\n", args...)
}

func warn(format string, args ...any) {
	caution.Fprintf(os.Stderr, "  ! "+format+"\n", args...)
}

// withSpinner shows an indeterminate spinner while fn runs
func withSpinner(msg string, fn func() error) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + msg
	s.Start()
	defer s.Stop()
	return fn()
}

// progress renders adjudication batches; the total is known on the first update
type progress struct {
	mu          sync.Mutex
	bar         *progressbar.ProgressBar
	description string
}

func newProgress(description string) *progress {
	return &progress{description: description}
}

func (p *progress) update(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(p.description),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("batches"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "█",
				SaucerHead:    "█",
				SaucerPadding: "░",
				BarStart:      "│",
				BarEnd:        "│",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(os.Stderr, "\n")
			}),
		)
	}
	_ = p.bar.Set(done)
}

func (p *progress) finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func printSummary(report *domain.Report, resultPath, auditPath string) {
	sum := report.Summary
	rule := strings.Repeat("=", 52)

	fmt.Println()
	fmt.Println(rule)
	fmt.Printf("  total:      %8d\n", sum.Total)
	good.Printf("  matched:    %8d  (%.1f%%)\n", sum.Matched, sum.MatchRate*100)
	fmt.Printf("  unmatched:  %8d\n", sum.Unmatched)
	faint.Printf("    gated %d, declined %d\n", sum.Gated, sum.Declined)
	if sum.Fallback > 0 {
		caution.Printf("  fallback:   %8d  (oracle unavailable, top candidate used)\n", sum.Fallback)
	}
	fmt.Println(rule)
	fmt.Printf("  result: %s\n", resultPath)
	fmt.Printf("  audit:  %s\n", auditPath)
	faint.Printf("  run:    %s (%s)\n", report.RunID, report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
}
