package main

import (
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/maauso/video2text/internal/pipeline"
)

// renderSummary formats the outcome of a run as a two-column table.
func renderSummary(run *pipeline.Run) string {
	r := run.Clone()

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("video2text run")
	tw.AppendHeader(table.Row{"Field", "Value"})

	tw.AppendRow(table.Row{"Run ID", r.ID})
	tw.AppendRow(table.Row{"Status", string(r.Status)})
	tw.AppendRow(table.Row{"Source", r.SourcePath})
	tw.AppendRow(table.Row{"Waveform", r.WavPath})
	tw.AppendRow(table.Row{"Segments", segmentsLabel(r)})
	tw.AppendRow(table.Row{"Audio", formatMs(r.AudioMs)})
	tw.AppendRow(table.Row{"Chunks", strconv.Itoa(r.Chunks)})
	tw.AppendRow(table.Row{"Recognized", strconv.Itoa(r.Recognized)})
	tw.AppendRow(table.Row{"Unrecognized", strconv.Itoa(r.Unrecognized)})
	tw.AppendRow(table.Row{"Request failures", strconv.Itoa(r.RequestFailures)})
	tw.AppendRow(table.Row{"Transcript", r.TextPath})
	if r.TranscriptURL != "" {
		tw.AppendRow(table.Row{"Published", r.TranscriptURL})
	}
	tw.AppendRow(table.Row{"Elapsed", r.Duration().Round(time.Millisecond).String()})
	if r.Error != "" {
		tw.AppendRow(table.Row{"Error", r.Error})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: 80},
	})

	return tw.Render()
}

func segmentsLabel(r *pipeline.Run) string {
	n := len(r.Segments)
	switch {
	case n == 0:
		return "-"
	case r.Split:
		return strconv.Itoa(n) + " parts"
	default:
		return "not split"
	}
}

func formatMs(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return (time.Duration(ms) * time.Millisecond).String()
}
