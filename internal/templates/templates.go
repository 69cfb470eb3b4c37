package templates

import "strings"

// Welcome seeds the first note of an empty workspace.
const Welcome = "# Welcome to Notes\n\nStart typing to create your shared note.\n\n- Real-time rendering\n- Character alignment\n- URL-based sharing\n- **New:** Manage multiple files!"

// Fallback replaces the last note when it gets deleted.
const Fallback = "# Welcome to Notes\n\nStart typing to create your shared note."

// Names returns all available template names.
var Names = []string{"default", "meeting", "brainstorm", "research"}

var bodies = map[string]string{
	"default": "",

	"meeting": `# {{title}}

**Date:** {{date}}
**Attendees:**

## Agenda

-

## Notes

## Action Items

- [ ]
`,

	"brainstorm": `# {{title}}

**Date:** {{date}}

## Core idea

## Branches

-
-
-

## Keep / discard

| Idea | Keep? |
|------|-------|
|      |       |
`,

	"research": `# {{title}}

**Date:** {{date}}

## Question

## Sources

-

## Notes

## Conclusion
`,
}

// Get returns the template body for the given name, with {{title}} and {{date}}
// replaced by the provided values.
// Unknown names fall back to the "default" template (empty body).
// The default template with a title yields a bare heading so the note is
// named after it.
func Get(name, title, date string) string {
	body, ok := bodies[name]
	if !ok {
		body = bodies["default"]
	}
	if body == "" && title != "" {
		return "# " + title + "\n\n"
	}
	body = strings.ReplaceAll(body, "{{title}}", title)
	body = strings.ReplaceAll(body, "{{date}}", date)
	return body
}

// Exists reports whether name is a known template.
func Exists(name string) bool {
	_, ok := bodies[name]
	return ok
}
