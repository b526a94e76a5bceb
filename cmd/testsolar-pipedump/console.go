package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/OpenTestSolar/testtool-sdk-golang/host"
	"github.com/OpenTestSolar/testtool-sdk-golang/model"
	"github.com/OpenTestSolar/testtool-sdk-golang/pipe"
)

var (
	okColor      = color.New(color.FgGreen)
	failColor    = color.New(color.FgRed, color.Bold)
	pendingColor = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
)

type consolePrinter struct {
	out     io.Writer
	filters host.RegexFilters
	verbose bool
}

func (p *consolePrinter) Notef(format string, args ...interface{}) {
	fmt.Fprintln(p.out, dimColor.Sprintf(format, args...))
}

func (p *consolePrinter) Event(event pipe.Event) {
	switch event.Kind {
	case pipe.KindLoadResult:
		p.LoadResult(*event.LoadResult)
	case pipe.KindTestResult:
		p.TestResult(*event.TestResult)
	}
}

func (p *consolePrinter) LoadResult(load model.LoadResult) {
	fmt.Fprintf(p.out, "[load] %d tests, %d load errors\n", len(load.Tests), len(load.LoadErrors))
	for _, tc := range load.Tests {
		if p.filters.Match(model.Key(tc)) {
			fmt.Fprintf(p.out, "  %s\n", tc.Name)
		}
	}
	for _, le := range load.LoadErrors {
		fmt.Fprintf(p.out, "  %s %s\n", failColor.Sprint("LOAD ERROR:"), le.Name)
		for _, line := range strings.Split(strings.TrimSpace(le.Message), "\n") {
			fmt.Fprintf(p.out, "    %s\n", line)
		}
	}
}

func (p *consolePrinter) TestResult(tr model.TestResult) {
	if !p.filters.Match(model.Key(tr.Test)) {
		return
	}
	fmt.Fprintf(p.out, "[%s] %s", statusLabel(tr.ResultType), tr.Test.Name)
	if tr.EndTime != nil {
		fmt.Fprintf(p.out, " (%s)", tr.EndTime.Sub(tr.StartTime.Time))
	}
	fmt.Fprintln(p.out)
	if tr.Message != "" && (tr.ResultType.IsFailure() || p.verbose) {
		fmt.Fprintf(p.out, "  %s\n", tr.Message)
	}
	if !p.verbose {
		return
	}
	for _, step := range tr.Steps {
		fmt.Fprintf(p.out, "  step: %s\n", step.Title)
		for _, log := range step.Logs {
			fmt.Fprintf(p.out, "    %s %s %s\n", dimColor.Sprint(log.Time.String()), log.Level, log.Content)
			if log.AssertError != nil {
				fmt.Fprintf(p.out, "      %s expected %q, actual %q: %s\n",
					failColor.Sprint("assert:"), log.AssertError.Expect, log.AssertError.Actual, log.AssertError.Message)
			}
			if log.RuntimeError != nil {
				fmt.Fprintf(p.out, "      %s %s\n", failColor.Sprint("error:"), log.RuntimeError.Summary)
			}
			for _, att := range log.Attachments {
				fmt.Fprintf(p.out, "      attachment (%s) %s: %s\n", att.AttachmentType, att.Name, att.Url)
			}
		}
	}
}

func (p *consolePrinter) DecodeError(err error) {
	fmt.Fprintf(p.out, "%s %s\n", failColor.Sprint("[undecodable event]"), err)
}

func (p *consolePrinter) Summary(results *host.Results) {
	all := results.TestResults()
	failures := results.Failures()
	pending := results.Pending()
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "%d discovered, %d reported, %s, %s, %s\n",
		len(results.Tests()),
		len(all),
		okColor.Sprintf("%d passed", countStatus(all, model.ResultTypeSucceed)),
		failColor.Sprintf("%d failed", len(failures)),
		pendingColor.Sprintf("%d unfinished", len(pending)),
	)
	for _, tr := range failures {
		fmt.Fprintf(p.out, "  FAILED: %s\n", tr.Test.Name)
	}
	if n := len(results.LoadErrors()); n > 0 {
		fmt.Fprintf(p.out, "  %d load errors\n", n)
	}
	if n := len(results.DecodeErrors()); n > 0 {
		fmt.Fprintf(p.out, "  %s\n", failColor.Sprintf("%d undecodable events", n))
	}
}

func statusLabel(rt model.ResultType) string {
	switch {
	case rt == model.ResultTypeSucceed:
		return okColor.Sprint(rt)
	case rt.IsFailure():
		return failColor.Sprint(rt)
	case !rt.IsFinal():
		return pendingColor.Sprint(rt)
	default:
		return string(rt)
	}
}

func countStatus(results []model.TestResult, rt model.ResultType) int {
	n := 0
	for _, tr := range results {
		if tr.ResultType == rt {
			n++
		}
	}
	return n
}
