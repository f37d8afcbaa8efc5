package workflow

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/agtx/agtx/internal/model"
	"github.com/agtx/agtx/templates"
)

// CommandBuilder renders the text injected into task windows. The planning
// edge launches the agent binary with the plan prompt as an argument; the
// implement edge talks to the agent already running in the window, so it
// sends the prompt as plain text.
type CommandBuilder struct {
	agent model.AgentConfig
	plan  *template.Template
	impl  *template.Template
}

func NewCommandBuilder(agent model.AgentConfig) (*CommandBuilder, error) {
	plan, err := parsePrompt("plan.md")
	if err != nil {
		return nil, err
	}
	impl, err := parsePrompt("implement.md")
	if err != nil {
		return nil, err
	}
	return &CommandBuilder{agent: agent, plan: plan, impl: impl}, nil
}

// PlanCommand builds the shell line that starts the agent on a fresh task,
// e.g. `claude --dangerously-skip-permissions 'plan prompt...'`.
func (b *CommandBuilder) PlanCommand(task model.Task) (string, error) {
	prompt, err := render(b.plan, task)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, 2+len(b.agent.ExtraArgs))
	parts = append(parts, b.agent.Command)
	parts = append(parts, b.agent.ExtraArgs...)
	parts = append(parts, shellQuote(prompt))
	return strings.Join(parts, " "), nil
}

// ImplementCommand builds the plain-text instruction sent to the agent that
// is already running in the task window.
func (b *CommandBuilder) ImplementCommand(task model.Task) (string, error) {
	return render(b.impl, task)
}

func parsePrompt(name string) (*template.Template, error) {
	content, err := templates.FS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read prompt template %s: %w", name, err)
	}
	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}
	return tmpl, nil
}

func render(tmpl *template.Template, task model.Task) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, task); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	// Newlines inside the prompt would submit early under send-keys.
	out := strings.ReplaceAll(sb.String(), "\n", " ")
	return strings.TrimSpace(out), nil
}

// shellQuote wraps s in single quotes, escaping embedded single quotes, so
// titles with shell metacharacters survive injection verbatim.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
