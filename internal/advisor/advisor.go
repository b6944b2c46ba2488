// Package advisor drafts remediation notes for validation findings using Claude.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ajitpratap0/adlint/internal/diag"
	"github.com/ajitpratap0/adlint/pkg/tokenizer"
	"github.com/ajitpratap0/adlint/pkg/xmlutil"
)

// DefaultMaxFindings bounds how many findings are sent in one request.
const DefaultMaxFindings = 50

// PromptTokenBudget bounds the estimated size of the findings block.
const PromptTokenBudget = 8000

// NoFindings is returned without calling the API when the report is clean.
const NoFindings = "No findings to remediate."

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("advisor: claude api key is not set (ADLINT_CLAUDE_API_KEY or ANTHROPIC_API_KEY)")

// messageCreator is the subset of the Anthropic client used by the advisor.
type messageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Advisor asks Claude for remediation notes.
type Advisor struct {
	messages    messageCreator
	model       string
	maxFindings int
	logger      *slog.Logger
}

// New creates a Claude-backed advisor.
func New(apiKey, model string, maxFindings int, logger *slog.Logger) (*Advisor, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return newWithClient(&client.Messages, model, maxFindings, logger), nil
}

func newWithClient(m messageCreator, model string, maxFindings int, logger *slog.Logger) *Advisor {
	if maxFindings <= 0 {
		maxFindings = DefaultMaxFindings
	}
	return &Advisor{messages: m, model: model, maxFindings: maxFindings, logger: logger}
}

// adviceSystemPrompt frames the request; findings are passed inside XML tags
// and escaped so file content cannot close the tags.
const adviceSystemPrompt = "You review architecture description documents. " +
	"For each finding give a short, concrete fix that names the entity and field to change. " +
	"Answer in Markdown, one bullet per finding, in the order given."

const advicePromptTemplate = `Architecture: %s

<findings>
%s</findings>

%sDraft remediation notes for the findings above.`

// Advise returns Markdown remediation notes for the report's findings.
// A report without findings returns NoFindings and makes no API call.
func (a *Advisor) Advise(ctx context.Context, report *diag.Report) (string, error) {
	if len(report.Diagnostics) == 0 {
		return NoFindings, nil
	}

	prompt := a.prompt(report)
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 2048,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
		System: []anthropic.TextBlockParam{
			{Text: adviceSystemPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude")
	}

	a.logger.Info("advice drafted", "architecture", report.ArchitectureID, "findings", len(report.Diagnostics))
	return out.String(), nil
}

func (a *Advisor) prompt(report *diag.Report) string {
	lines := make([]string, 0, len(report.Diagnostics))
	for _, d := range report.Diagnostics {
		loc := d.Location
		if d.Pos.Entity != "" {
			loc = d.Pos.ByID()
		}
		lines = append(lines, xmlutil.Element("finding", d.Message,
			xmlutil.Attr{Name: "severity", Value: string(d.Severity)},
			xmlutil.Attr{Name: "code", Value: string(d.Code)},
			xmlutil.Attr{Name: "location", Value: loc},
		))
	}

	keep := min(len(lines), a.maxFindings, tokenizer.Fit(lines, PromptTokenBudget))
	var omitted string
	if keep < len(lines) {
		omitted = fmt.Sprintf("%d further findings were omitted.\n\n", len(lines)-keep)
	}

	var b strings.Builder
	for _, line := range lines[:keep] {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return fmt.Sprintf(advicePromptTemplate, xmlutil.Escape(report.ArchitectureID), b.String(), omitted)
}
