package importer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/leeovery/termtodo/internal/task"
)

var (
	sectionRe  = regexp.MustCompile(`^##\s+(.+?)(?:\s+\(\d+\))?$`)
	headingRe  = regexp.MustCompile(`^###\s+(?:\[([ xX])\]\s*)?(.*)$`)
	metaRe     = regexp.MustCompile(`(?i)^- (?:\*\*)?(Priority|Category|Due Date|Estimated Time|Tags|Pomodoros|Status):(?:\*\*)?\s*(.*)$`)
	subtaskRe  = regexp.MustCompile(`^[-*] \[([ xX])\] (.+)$`)
	leadingNum = regexp.MustCompile(`^\d+`)
)

// mdParser accumulates one task at a time. A ### heading starts a task; the
// enclosing "## Status (n)" section, when recognized, sets its status,
// otherwise the heading's checkbox does.
type mdParser struct {
	out     []Candidate
	cur     *Candidate
	desc    []string
	section task.Status

	inCode   bool
	codeLang string
	code     []string
}

// ParseMarkdown reads the Markdown export layout (and hand-written variants of
// it) into candidates. Unrecognized lines before the first task are ignored.
func ParseMarkdown(content string) []Candidate {
	p := &mdParser{}
	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		p.line(line)
	}
	p.flush()
	return p.out
}

func (p *mdParser) line(line string) {
	trimmed := strings.TrimSpace(line)

	if p.inCode {
		if strings.HasPrefix(trimmed, "```") {
			p.closeFence()
			return
		}
		p.code = append(p.code, line)
		return
	}

	if m := headingRe.FindStringSubmatch(trimmed); m != nil {
		p.flush()
		c := Candidate{Title: strings.TrimSpace(m[2])}
		switch {
		case p.section != "":
			c.Status = string(p.section)
		case m[1] == "x" || m[1] == "X":
			c.Status = string(task.StatusCompleted)
		}
		p.cur = &c
		return
	}

	if !strings.HasPrefix(trimmed, "###") {
		if m := sectionRe.FindStringSubmatch(trimmed); m != nil {
			p.flush()
			p.section = statusForLabel(m[1])
			return
		}
	}

	if p.cur == nil {
		return
	}

	switch {
	case strings.HasPrefix(trimmed, "```"):
		p.inCode = true
		p.codeLang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
		p.code = nil
		return
	case trimmed == "---":
		return
	case strings.HasPrefix(trimmed, "**") && strings.HasSuffix(trimmed, "**"):
		return
	case strings.HasPrefix(trimmed, "# "):
		return
	}

	if m := metaRe.FindStringSubmatch(trimmed); m != nil {
		p.meta(strings.ToLower(m[1]), strings.TrimSpace(m[2]))
		return
	}
	if m := subtaskRe.FindStringSubmatch(trimmed); m != nil {
		p.cur.Subtasks = append(p.cur.Subtasks, task.Subtask{
			Title:     strings.TrimSpace(m[2]),
			Completed: m[1] != " ",
		})
		return
	}

	p.desc = append(p.desc, line)
}

func (p *mdParser) meta(key, value string) {
	c := p.cur
	switch key {
	case "priority":
		c.Priority = value
	case "category":
		c.Category = value
	case "status":
		c.Status = value
	case "due date":
		c.DueDate = value
	case "estimated time":
		if n, ok := leadingInt(value); ok {
			c.EstimatedTime = &n
		}
	case "pomodoros":
		if n, ok := leadingInt(value); ok {
			c.PomodoroCount = &n
		}
	case "tags":
		for _, tag := range strings.Split(value, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				c.Tags = append(c.Tags, tag)
			}
		}
	}
}

func (p *mdParser) closeFence() {
	if p.cur != nil {
		p.cur.CodeSnippet = &task.CodeSnippet{
			Code:     strings.TrimRight(strings.Join(p.code, "\n"), "\n"),
			Language: p.codeLang,
		}
	}
	p.inCode = false
	p.codeLang = ""
	p.code = nil
}

func (p *mdParser) flush() {
	if p.inCode {
		p.closeFence()
	}
	if p.cur == nil {
		return
	}
	p.cur.Description = strings.TrimSpace(strings.Join(p.desc, "\n"))
	p.out = append(p.out, *p.cur)
	p.cur = nil
	p.desc = nil
}

// statusForLabel maps a section label such as "In Progress" to its status.
// Unknown labels clear the section so checkboxes decide.
func statusForLabel(label string) task.Status {
	norm := strings.ToLower(strings.TrimSpace(label))
	for _, s := range task.Statuses {
		if norm == strings.ToLower(string(s)) || norm == strings.ReplaceAll(string(s), "-", " ") {
			return s
		}
	}
	return ""
}

func leadingInt(s string) (float64, bool) {
	m := leadingNum.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return float64(n), true
}
