package assist

import (
	"fmt"
	"strings"
)

func pagePrompt(content string) string {
	return fmt.Sprintf(`Please summarize the following page content. Provide a concise overview of the main topics and key information. The summary should be neutral and informative.

Page Content:
%s

Summary:`, content)
}

func commentsPrompt(comments []string) string {
	return fmt.Sprintf(`Please summarize the following discussion from a Hacker News comment section. Provide a concise overview of the main topics, opinions, and any conclusions drawn. The summary should be neutral and informative.

Comments:
%s

Summary:`, strings.Join(comments, "\n\n---\n\n"))
}

const askAck = "Understood. I will use the provided page content as context for my answers. If the content is not relevant or not provided, I will answer generally. How can I help?"

func askInstruction(page string) string {
	if strings.TrimSpace(page) == "" {
		page = "(No specific page content provided for this query)"
	}
	return fmt.Sprintf(`You are a helpful AI assistant integrated into a Hacker News client application.
The user is currently viewing a page. If the following page content is not empty, use it as primary context for your answers. If it is empty, or the question is unrelated, answer as a general helpful assistant.
---BEGIN PAGE CONTENT (if any)---
%s
---END PAGE CONTENT---

Links inside this application:
- User profiles: when the user asks about a user and the username is clear, answer with a markdown link [/user/<name>](/user/<name>).
- Items: when the user asks for a story, post or item by numeric ID, answer with a markdown link [/post/<id>](/post/<id>).
- If the username or ID is unclear, ask for clarification instead of guessing a link.
- For other questions answer concisely from the page content or general knowledge, and say so when the page does not answer it.`, page)
}

func interpretPrompt(command, theme, page string, history []string) string {
	var b strings.Builder
	b.WriteString(`You are a voice assistant for a website. Analyze the user's command and determine what action to take.
Be aware of context and natural language variations.

Available actions:
- theme:dark (dark mode, "too bright", "night mode")
- theme:light (light mode, "too dark", "day mode")
- navigate:home (go to home page)
- navigate:about (go to about page)
- scroll:top (scroll to top, "go up", "beginning")
- scroll:bottom (scroll to bottom, "go down", "end")
- navigate:back (go back in history)
- navigate:forward (go forward in history)
- page:refresh (refresh or reload the page)
- navigate:storytype:top (top stories)
- navigate:storytype:new (new stories)
- navigate:storytype:best (best stories)
- navigate:storytype:ask (ask hn)
- navigate:storytype:show (show hn)
- navigate:storytype:job (jobs)
- none (no clear action)

`)
	if len(history) > 0 {
		fmt.Fprintf(&b, "Previous commands: %s\n", strings.Join(history, ", "))
	}
	fmt.Fprintf(&b, `User's current context:
- Current theme: %s
- Current page: %s

User said: %q

Respond with JSON only: { "action": "action_name", "reason": "brief explanation" }`, theme, page, command)
	return b.String()
}
