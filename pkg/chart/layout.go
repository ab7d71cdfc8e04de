// Package chart renders extracted yaw series as stacked scatter panels.
package chart

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ccollicutt/yawlog/pkg/record"
)

// Range is a fixed y-axis range.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Trace draws one series column as scatter points.
type Trace struct {
	Column string  `yaml:"column" json:"column"`
	Legend string  `yaml:"legend" json:"legend"`
	Color  string  `yaml:"color" json:"color"` // SVG colour name
	Alpha  float64 `yaml:"alpha,omitempty" json:"alpha,omitempty"`
}

// Panel is one chart in the vertical stack.
type Panel struct {
	YLabel string  `yaml:"y_label" json:"y_label"`
	YRange *Range  `yaml:"y_range,omitempty" json:"y_range,omitempty"`
	Traces []Trace `yaml:"traces" json:"traces"`
}

// Layout describes the whole figure. Width and Height are in inches.
type Layout struct {
	Title  string  `yaml:"title,omitempty" json:"title,omitempty"`
	XLabel string  `yaml:"x_label" json:"x_label"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
	Panels []Panel `yaml:"panels" json:"panels"`
}

// DefaultLayout returns the figure used for a built-in variant. title is
// placed above the top panel when non-empty.
func DefaultLayout(variant, title string) (*Layout, error) {
	switch variant {
	case record.SchemaNameYaw:
		return &Layout{
			Title:  title,
			XLabel: "Time",
			Width:  10,
			Height: 6,
			Panels: []Panel{
				{
					YLabel: "Yaw",
					YRange: &Range{Min: -7, Max: 7},
					Traces: []Trace{{Column: "yaw", Legend: "Tracker Yaw", Color: "blue"}},
				},
				{
					YLabel: "3D Yaw",
					YRange: &Range{Min: -7, Max: 7},
					Traces: []Trace{{Column: "yaw3d", Legend: "3D Yaw", Color: "red"}},
				},
			},
		}, nil
	case record.SchemaNameStateMeas:
		return &Layout{
			Title:  title,
			XLabel: "Time",
			Width:  10,
			Height: 8,
			Panels: []Panel{
				{
					YLabel: "Yaw Values",
					YRange: &Range{Min: -6, Max: 6},
					Traces: []Trace{
						{Column: "state_yaw", Legend: "State Yaw", Color: "blue", Alpha: 0.3},
						{Column: "pred_yaw", Legend: "Predicted Yaw", Color: "green", Alpha: 0.3},
						{Column: "meas_yaw", Legend: "Measured Yaw", Color: "red", Alpha: 0.3},
					},
				},
				{
					YLabel: "C*X Value",
					Traces: []Trace{{Column: "cx", Legend: "C*X", Color: "purple"}},
				},
			},
		}, nil
	default:
		return nil, fmt.Errorf("no chart layout for variant %q", variant)
	}
}

// Title formats the figure title for a run label.
func Title(label string) string {
	if label == "" {
		return ""
	}
	return "Bag name: " + label
}

// ImagePath returns <dir>/<label>_yaw_plot.<format>.
func ImagePath(dir, label, format string) string {
	if label == "" {
		label = "run"
	}
	return filepath.Join(dir, label+"_yaw_plot."+strings.ToLower(format))
}
