// Package presentation renders an execution page as terminal text.
package presentation

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/samber/lo"

	"github.com/lk2023060901/execution-console/internal/content"
	"github.com/lk2023060901/execution-console/internal/execution/biz"
	apperrors "github.com/lk2023060901/execution-console/internal/pkg/errors"
	"github.com/lk2023060901/execution-console/internal/router"
)

// Page texts
const (
	InProgressText      = "Execution in progress..."
	ExecutionFailedText = "Execution failed"
	defaultWidth        = 80
)

// Options control what the renderer shows.
type Options struct {
	Project          string
	Width            int
	CollapseLines    int
	ShowConversation bool // 会话区默认折叠
	ExpandMessages   bool
	ExpandMetadata   bool
	BlocksMode       bool   // 结构化消息按内容块渲染
	MetadataPath     string // gjson 路径，只展示元数据的子值
	Markdown         bool
	TokenEstimate    bool
	Profile          termenv.Profile
}

// Renderer 渲染执行详情页
type Renderer struct {
	opts   Options
	lr     *lipgloss.Renderer
	styles styles
	md     *glamour.TermRenderer
}

// NewRenderer creates a renderer writing styles for w.
func NewRenderer(w io.Writer, opts Options) (*Renderer, error) {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.CollapseLines <= 0 {
		opts.CollapseLines = DefaultCollapseLines
	}

	lr := lipgloss.NewRenderer(w)
	lr.SetColorProfile(opts.Profile)

	r := &Renderer{opts: opts, lr: lr, styles: newStyles(lr)}
	if opts.Markdown {
		style := "dark"
		if opts.Profile == termenv.Ascii {
			style = "notty"
		}
		md, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(r.bubbleWidth()-4),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
		}
		r.md = md
	}
	return r, nil
}

// Options returns the current options.
func (r *Renderer) Options() Options {
	return r.opts
}

// SetOptions replaces the toggles that do not affect renderer construction.
func (r *Renderer) SetOptions(opts Options) {
	opts.Profile = r.opts.Profile
	opts.Markdown = r.opts.Markdown
	if opts.Width <= 0 {
		opts.Width = r.opts.Width
	}
	if opts.CollapseLines <= 0 {
		opts.CollapseLines = DefaultCollapseLines
	}
	r.opts = opts
}

// Render renders the whole page. Malformed message content is shown inline
// and also returned, joined, as the error; the page text is always complete.
func (r *Renderer) Render(exec *biz.Execution) (string, error) {
	if exec == nil {
		return r.styles.error.Render("Execution not found"), nil
	}

	var errs []error
	sections := []string{
		r.header(exec),
		r.params(exec),
	}
	conv, convErrs := r.conversation(exec)
	errs = append(errs, convErrs...)
	sections = append(sections, conv, r.output(exec), r.metadata(exec))

	return strings.Join(lo.Compact(sections), "\n") + "\n", errors.Join(errs...)
}

// RenderSnapshot renders a viewer snapshot: loading, error or the page.
func (r *Renderer) RenderSnapshot(snap biz.Snapshot) (string, error) {
	switch snap.State {
	case biz.StateLoading:
		return r.styles.muted.Render("Loading execution "+snap.ExecutionID+"...") + "\n", nil
	case biz.StateError:
		return r.styles.error.Render(snap.Error) + "\n", nil
	default:
		return r.Render(snap.Execution)
	}
}

func (r *Renderer) header(exec *biz.Execution) string {
	var b strings.Builder
	b.WriteString(r.styles.title.Render("Execution " + exec.Identifier))
	b.WriteString("\n")
	b.WriteString(r.field("Created at", exec.CreatedAt.Display()))
	b.WriteString(r.field("Thread ID", exec.ThreadID))
	if exec.HasThread() {
		b.WriteString(r.field("View Thread", r.styles.link.Render(router.ThreadPath(r.opts.Project, exec.ThreadID))))
	}
	b.WriteString(r.badge(exec.Status))
	b.WriteString("\n")
	if exec.ExecutionTime > 0 {
		b.WriteString(r.styles.muted.Render("Execution Time: " + formatNumber(exec.ExecutionTime) + "s"))
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Renderer) badge(status biz.Status) string {
	switch status {
	case biz.StatusCompleted:
		return r.styles.completed.Render(status.Label())
	case biz.StatusFailed:
		return r.styles.failed.Render(status.Label())
	default:
		return r.styles.other.Render(status.Label())
	}
}

func (r *Renderer) params(exec *biz.Execution) string {
	t := exec.ParamsTemplate
	if t == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(r.styles.section.Render("Execution Parameters"))
	b.WriteString("\n")
	if exec.ParamsTemplateID != "" {
		b.WriteString(r.field("View Template", r.styles.link.Render(router.TemplatePath(r.opts.Project, exec.ParamsTemplateID))))
	}
	b.WriteString(r.field("Template Name", t.Name))
	b.WriteString(r.field("Model", t.Model))
	temperature := ""
	if t.Temperature != nil {
		temperature = formatNumber(*t.Temperature)
	}
	b.WriteString(r.field("Temperature", temperature))
	if t.MaxTokens > 0 {
		b.WriteString(r.field("Max Tokens", strconv.Itoa(t.MaxTokens)))
	}
	if t.MaxCompletionTokens > 0 {
		b.WriteString(r.field("Max Completion Tokens", strconv.Itoa(t.MaxCompletionTokens)))
	}
	if t.TopP > 0 {
		b.WriteString(r.field("Top P", formatNumber(t.TopP)))
	}
	if t.MaxOutputTokens > 0 {
		b.WriteString(r.field("Max Output Tokens", strconv.Itoa(t.MaxOutputTokens)))
	}
	if t.Timeout > 0 {
		b.WriteString(r.field("Timeout", formatNumber(t.Timeout)+"s"))
	}
	return b.String()
}

func (r *Renderer) conversation(exec *biz.Execution) (string, []error) {
	messages := biz.DisplayMessages(exec.InputMessages)
	if !r.opts.ShowConversation {
		hint := fmt.Sprintf("▸ %d messages hidden", len(messages))
		return r.styles.section.Render("Conversation") + "\n" + r.styles.muted.Render(hint) + "\n", nil
	}

	var (
		b    strings.Builder
		errs []error
	)
	b.WriteString(r.styles.section.Render("Conversation"))
	b.WriteString("\n")

	if prompt, ok := biz.ResolveSystemPrompt(exec); ok {
		b.WriteString(r.styles.label.Render("System Prompt:"))
		b.WriteString("\n")
		b.WriteString(r.styles.system.Width(r.bubbleWidth()).Render(r.expandable(r.markdown(prompt))))
		b.WriteString("\n")
	}

	for _, m := range messages {
		text, err := r.messageText(m)
		if err != nil {
			errs = append(errs, err)
			b.WriteString(r.bubble(m.Role, "", r.styles.error.Render("⚠ "+apperrors.UserMessage(err, err.Error()))))
		} else {
			b.WriteString(r.bubble(m.Role, text, r.expandable(r.markdown(text))))
		}
		b.WriteString("\n")
	}

	if exec.Content != "" {
		b.WriteString(r.bubble(biz.RoleAssistant, exec.Content, r.expandable(r.markdown(exec.Content))))
		b.WriteString("\n")
	}
	if exec.Status == biz.StatusRunning {
		b.WriteString(r.styles.progress.Render(InProgressText))
		b.WriteString("\n")
	}
	return b.String(), errs
}

func (r *Renderer) messageText(m biz.Message) (string, error) {
	if r.opts.BlocksMode && m.Content.Kind() == content.KindArray {
		return strings.TrimSpace(content.FormatInputValue(m.Content)), nil
	}
	return biz.MessageContent(m)
}

// bubble 用户消息靠左，其余角色靠右；raw 用于 token 估算
func (r *Renderer) bubble(role, raw, rendered string) string {
	width := r.bubbleWidth()
	style := r.styles.assistant
	indent := r.opts.Width - width
	if role == biz.RoleUser {
		style = r.styles.user
		indent = 0
	}

	label := role
	if r.opts.TokenEstimate && raw != "" {
		label = fmt.Sprintf("%s · ~%d tokens", role, CountTokens(raw))
	}
	body := r.styles.label.Render(label) + "\n" + style.Width(width).Render(rendered)
	if indent <= 0 {
		return body
	}
	return r.lr.NewStyle().MarginLeft(indent).Render(body)
}

func (r *Renderer) markdown(text string) string {
	if r.md == nil || text == "" {
		return text
	}
	rendered, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(rendered, "\n")
}

func (r *Renderer) output(exec *biz.Execution) string {
	var body string
	switch exec.Status {
	case biz.StatusCompleted:
		var out content.Value
		if exec.Output != nil {
			out = exec.Output.Content
		}
		body = r.expandable(content.FormatOutput(out, exec.Content))
	case biz.StatusFailed:
		msg := ExecutionFailedText
		if exec.Output != nil && exec.Output.Error != "" {
			msg = exec.Output.Error
		}
		body = r.styles.error.Render(msg)
	case biz.StatusInProgress:
		body = r.styles.progress.Render(InProgressText)
	}

	return r.styles.section.Render("Execution Output") + "\n" +
		r.styles.label.Render("Output") + "\n" +
		body + "\n"
}

func (r *Renderer) metadata(exec *biz.Execution) string {
	var panels []string
	if exec.ParamsTemplate != nil && biz.HasJSON(exec.ParamsTemplate.ResponseFormat) {
		panels = append(panels, r.jsonPanel("Response Format", exec.ParamsTemplate.ResponseFormat))
	}
	if biz.HasJSON(exec.ResponseMetadata) {
		panels = append(panels, r.jsonPanel("Response Metadata", exec.ResponseMetadata))
	}
	if biz.HasJSON(exec.RequestMetadata) {
		panels = append(panels, r.jsonPanel("Request Metadata", exec.RequestMetadata))
	}
	return r.styles.section.Render("Additional Information") + "\n" + strings.Join(panels, "\n")
}

func (r *Renderer) jsonPanel(title string, raw []byte) string {
	heading := r.styles.label.Render(title)
	if r.opts.MetadataPath != "" {
		heading += r.styles.muted.Render(" @ " + r.opts.MetadataPath)
	}

	value, ok := Pluck(raw, r.opts.MetadataPath)
	if !ok {
		return heading + "\n" + r.styles.panel.Render(r.styles.muted.Render("(no value at path)")) + "\n"
	}
	if !r.opts.ExpandMetadata {
		return heading + "\n" + r.styles.panel.Render(Summary(value, r.opts.Width-2)) + "\n"
	}
	pretty, err := content.Pretty(value)
	if err != nil {
		pretty = string(value)
	}
	return heading + "\n" + r.styles.panel.Render(pretty) + "\n"
}

func (r *Renderer) expandable(text string) string {
	if r.opts.ExpandMessages {
		return text
	}
	shown, hidden := Collapse(text, r.opts.CollapseLines)
	if hidden == 0 {
		return shown
	}
	return shown + "\n" + r.styles.muted.Render(MoreLines(hidden))
}

func (r *Renderer) field(label, value string) string {
	return r.styles.label.Render(label+": ") + value + "\n"
}

func (r *Renderer) bubbleWidth() int {
	w := r.opts.Width * 3 / 4
	if w < 20 {
		w = r.opts.Width
	}
	return w
}

// formatNumber 与 JS 数字展示一致：1 → "1"，0.7 → "0.7"
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
