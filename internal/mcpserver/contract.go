package mcpserver

// NoteFormatContract describes the Markdown draft format accepted by the
// import_markdown tool and the inbox directory.
const NoteFormatContract = `# notesd Markdown Draft Format

A draft becomes one note. Frontmatter is optional; every field has a fallback.

## Structure

` + "```" + `markdown
---
title: Groceries        # OPTIONAL – else the first "# heading", else the file name
type: checklist         # OPTIONAL – text, checklist or table; inferred when absent
color: yellow           # OPTIONAL – none, red, orange, yellow, green, blue,
                        #            purple, pink, teal, brown, grey
pinned: true            # OPTIONAL – at most five notes can be pinned
---

- [ ] milk
- [x] eggs
` + "```" + `

## Type inference

1. Every non-blank line is a checkbox (` + "`" + `- [ ] item` + "`" + ` or ` + "`" + `- [x] item` + "`" + `): **checklist**.
2. Every non-blank line is a pipe row (` + "`" + `| a | b |` + "`" + `): **table**.
   Separator rows such as ` + "`" + `|---|---|` + "`" + ` are ignored.
3. Anything else: **text**, stored verbatim.

## Rules

1. The type never changes after creation. Content of another type is rejected.
2. The store holds at most 5000 notes (less if configured lower).
   Creating beyond that fails with a capacity error.
3. Search matches the start of words in the title and content,
   ignoring case and accents. Queries shorter than 2 characters return nothing.

## Example table

` + "```" + `markdown
# Budget

| item | cost |
|------|------|
| rent | 900  |
| food | 300  |
` + "```" + `
`
