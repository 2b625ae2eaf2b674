/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Status markers printed in front of console lines.
const (
	MarkSuccess      = "✅"
	MarkFailure      = "❌"
	MarkWarning      = "⚠️"
	MarkInspect      = "🔍"
	MarkRelationship = "🔗"
	MarkMigration    = "📦"
)

// Printer writes the human-readable status lines of every command. Status
// lines go to out, failures and warnings to err.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

func NewPrinter(out, err io.Writer, useColors bool) *Printer {
	return &Printer{out: out, err: err, useColors: useColors}
}

func (p *Printer) Out() io.Writer { return p.out }

func (p *Printer) Success(format string, args ...interface{}) {
	p.line(p.out, color.FgGreen, MarkSuccess, format, args...)
}

func (p *Printer) Warning(format string, args ...interface{}) {
	p.line(p.out, color.FgYellow, MarkWarning, format, args...)
}

func (p *Printer) Error(format string, args ...interface{}) {
	p.line(p.err, color.FgRed, MarkFailure, format, args...)
}

// Section prints a marker-prefixed heading such as "🔍 Columns of articulos".
func (p *Printer) Section(mark, format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	if p.useColors {
		color.New(color.FgWhite, color.Bold).Fprintf(p.out, "\n%s %s\n", mark, title)
		return
	}
	fmt.Fprintf(p.out, "\n%s %s\n", mark, title)
}

func (p *Printer) Info(format string, args ...interface{}) {
	if p.useColors {
		color.New(color.FgCyan).Fprintf(p.out, format+"\n", args...)
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Print(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Bold(text string) string {
	if p.useColors {
		return color.New(color.Bold).Sprint(text)
	}
	return text
}

func (p *Printer) Dim(text string) string {
	if p.useColors {
		return color.New(color.Faint).Sprint(text)
	}
	return text
}

func (p *Printer) line(w io.Writer, attr color.Attribute, mark, format string, args ...interface{}) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	if p.useColors {
		color.New(attr).Fprintf(w, "%s %s\n", mark, msg)
		return
	}
	fmt.Fprintf(w, "%s %s\n", mark, msg)
}
