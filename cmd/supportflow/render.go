package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"supportflow/internal/state"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 16
	statusIndent     = "  "
)

// stageLabel renders a stage identity for humans: "UNDERSTAND" -> "Understand".
func stageLabel(id string) string {
	if strings.TrimSpace(id) == "" {
		return "-"
	}
	return cases.Title(language.Und).String(strings.ToLower(id))
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func recordKind(status state.Status) statusKind {
	switch status {
	case state.StatusSuccess:
		return statusOK
	case state.StatusSkipped:
		return statusInfo
	default:
		return statusError
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func stageLogTable(records []state.StageRecord) string {
	rows := make([][]string, 0, len(records))
	for i, rec := range records {
		failed := 0
		for _, call := range rec.ServerCalls {
			if !call.Success {
				failed++
			}
		}
		abilities := strings.Join(rec.AbilitiesExecuted, ", ")
		if abilities == "" {
			abilities = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			stageLabel(rec.Stage),
			string(rec.Status),
			strconv.Itoa(rec.Attempt),
			abilities,
			strconv.Itoa(failed),
		})
	}
	return renderTable("Stage log",
		[]string{"#", "Stage", "Status", "Attempt", "Abilities", "Failed calls"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignRight},
	)
}

type summary struct {
	Success      bool
	TicketID     string
	WorkflowID   string
	CurrentStage string
	Error        string
	Errors       []string
	StageLogs    []state.StageRecord
}

func renderSummary(out io.Writer, s summary, colorize bool) {
	if len(s.StageLogs) > 0 {
		fmt.Fprintln(out, stageLogTable(s.StageLogs))
	}
	fmt.Fprintln(out, renderStatusLine("Ticket", statusInfo, s.TicketID, colorize))
	if s.WorkflowID != "" {
		fmt.Fprintln(out, renderStatusLine("Workflow", statusInfo, s.WorkflowID, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Final stage", statusInfo, stageLabel(s.CurrentStage), colorize))
	for _, msg := range s.Errors {
		fmt.Fprintln(out, renderStatusLine("Stage error", statusWarn, msg, colorize))
	}
	if s.Success {
		fmt.Fprintln(out, renderStatusLine("Outcome", statusOK, "completed", colorize))
		return
	}
	fmt.Fprintln(out, renderStatusLine("Outcome", statusError, s.Error, colorize))
}
