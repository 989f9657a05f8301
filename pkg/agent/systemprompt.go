package agent

import (
	"fmt"
	"strings"
	"time"
)

// SystemPromptOptions controls how the system prompt is assembled.
type SystemPromptOptions struct {
	// Base is the operator-supplied prompt. It is used verbatim.
	Base string

	// DescribeHost appends the current date, working directory and shell so
	// the model can write commands that fit the machine it is driving.
	DescribeHost bool

	Cwd   string
	Shell string
	Now   time.Time // zero → time.Now()
}

// BuildSystemPrompt returns the system prompt, or "" when there is nothing to
// say; in that case the chat call carries only the user's message.
func BuildSystemPrompt(opts SystemPromptOptions) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(opts.Base))

	if opts.DescribeHost {
		now := opts.Now
		if now.IsZero() {
			now = time.Now()
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Current date and time: %s\n", now.Format("Monday, January 2, 2006 at 3:04:05 PM MST"))
		if opts.Cwd != "" {
			fmt.Fprintf(&sb, "Current working directory: %s\n", opts.Cwd)
		}
		if opts.Shell != "" {
			fmt.Fprintf(&sb, "Commands passed to run_command are executed with: %s -c\n", opts.Shell)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
