package dto

import "github.com/guregu/null/v6"

// ChartType is the renderer hint of a chart.
type ChartType string

const (
	ChartLine ChartType = "line"
	ChartBar  ChartType = "bar"
	ChartHBar ChartType = "horizontal_bar"
)

// ChartSeries is one named series of a chart.
type ChartSeries struct {
	Name   string       `json:"name"`
	Color  string       `json:"color,omitempty"`
	Values []null.Float `json:"values"`
}

// ChartAnnotation labels one point of a chart.
type ChartAnnotation struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Text  string  `json:"text"`
	Color string  `json:"color"`
}

// Chart is a renderer-agnostic chart description.
type Chart struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Type        ChartType         `json:"type"`
	XLabel      string            `json:"x_label"`
	YLabel      string            `json:"y_label"`
	Labels      []string          `json:"labels"`
	Series      []ChartSeries     `json:"series"`
	Annotations []ChartAnnotation `json:"annotations,omitempty"`
}
