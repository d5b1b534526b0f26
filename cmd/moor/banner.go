// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/common-nighthawk/go-figure"
	"golang.org/x/term"

	"moor.dev/moor/router/route"
)

// colorWriter downsamples ANSI styling to what w supports. Pipes and
// buffers get plain text.
func colorWriter(w io.Writer) *colorprofile.Writer {
	return colorprofile.NewWriter(w, os.Environ())
}

var (
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(14).PaddingLeft(2)
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	providerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// printBanner writes the startup banner of serve: the service name in
// ASCII art, the listen address and the observability setup.
func printBanner(out io.Writer, addr string, s *stack, infos []route.Info) {
	w := colorWriter(out)

	gradient := []string{"12", "14", "10", "11"}
	var art strings.Builder
	for _, line := range figure.NewFigure("moor", "", false).Slicify() {
		if strings.TrimSpace(line) == "" {
			art.WriteString("\n")
			continue
		}
		for i, char := range line {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[i%len(gradient)])).Bold(true)
			art.WriteString(style.Render(string(char)))
		}
		art.WriteString("\n")
	}

	line := func(label, value string) string {
		return labelStyle.Render(label) + "  " + value + "\n"
	}

	var b strings.Builder
	b.WriteString(categoryStyle.Render("Service") + "\n")
	b.WriteString(line("Version:", valueStyle.Foreground(lipgloss.Color("14")).Render(version)))
	b.WriteString(line("Address:", valueStyle.Foreground(lipgloss.Color("10")).Render(displayAddr(addr))))
	b.WriteString(line("Routes:", valueStyle.Render(fmt.Sprint(len(infos)))))

	b.WriteString("\n" + categoryStyle.Render("Observability") + "\n")
	if s.metrics != nil {
		where := s.metrics.ServerAddress()
		if where == "" {
			where = addr
		}
		where = displayAddr(where) + s.metrics.Path()
		b.WriteString(line("Metrics:", valueStyle.Foreground(lipgloss.Color("13")).Render(where)+"  "+
			providerStyle.Render(fmt.Sprintf("[%s]", s.metrics.Provider()))))
	} else {
		b.WriteString(line("Metrics:", disabledStyle.Render("Disabled")))
	}
	if s.tracer != nil {
		b.WriteString(line("Tracing:", valueStyle.Foreground(lipgloss.Color("12")).Render("Enabled")+"  "+
			providerStyle.Render(fmt.Sprintf("[%s]", s.tracer.Provider()))))
	} else {
		b.WriteString(line("Tracing:", disabledStyle.Render("Disabled")))
	}
	if s.store != nil {
		b.WriteString(line("Cache:", valueStyle.Render(s.file.CacheKey)))
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprint(w, art.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprint(w, b.String())
	_, _ = fmt.Fprintln(w)
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "0.0.0.0" + addr
	}
	return "http://" + addr
}

// renderRouteTable draws infos as a bordered table, fitted to the terminal
// when out is one.
func renderRouteTable(out io.Writer, infos []route.Info) error {

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		name := info.Name
		if name == "" {
			name = "-"
		}
		rows = append(rows, []string{fmt.Sprint(info.ID), info.Pattern, describeTargets(info), name})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				style = style.Bold(true).Foreground(lipgloss.Color("230"))
			}
			return style
		}).
		Headers("ID", "Pattern", "Target", "Name").
		Rows(rows...)
	if f, ok := out.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			t = t.Width(width)
		}
	}

	_, err := fmt.Fprintln(colorWriter(out), t.Render())
	return err
}
