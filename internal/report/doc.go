// Package report turns a run's records into summaries, terminal charts,
// SVG charts and a Markdown report. It only reads records; it never
// touches an engine.
package report
