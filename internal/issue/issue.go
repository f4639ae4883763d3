// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

const (
	// SelectionFailedId is raised when no file-selection heuristic matched.
	SelectionFailedId Id = iota + 1
	// ConfigInvalidId is raised when pyproject.toml holds malformed build fields.
	ConfigInvalidId
	// InstallerFailedId is raised when the package installer exits non-zero.
	InstallerFailedId
	// InvalidEntryId is raised when a selected path cannot be an archive entry.
	InvalidEntryId
	// MissingSourceId is raised when a selected file vanished before writing.
	MissingSourceId
)

type (
	// Id identifies an issue in the catalog.
	Id int

	// MarkdownMsg is the markdown body of an issue.
	MarkdownMsg string

	// HttpLink is a documentation link attached to an issue.
	HttpLink string

	// Issue is a markdown-formatted explanation of a failure class with
	// remediation steps.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

// Id returns the issue identifier.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw markdown body.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the issue for a terminal using the given glamour style
// ("dark", "light", "notty", or a path to a style file).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.docLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	selectionFailedIssue = &Issue{
		id: SelectionFailedId,
		mdMsg: `
# Unable to determine which files to ship

No directory or module matches the name of your project, so the default
file selection could not pick anything.

## Heuristics tried, for each candidate name
1. ` + "`<name>/__init__.py`" + `
2. ` + "`src/<name>/__init__.py`" + `
3. ` + "`<name>.py`" + `
4. exactly one ` + "`*/<name>/__init__.py`" + `

## Things you can try
Define at least one file selection option in the pyz target table:

~~~toml
[tool.hatch.build.targets.pyz]
packages = ["src/foo"]
~~~`,
		docLinks: []HttpLink{"https://hatch.pypa.io/latest/config/build/"},
	}

	configInvalidIssue = &Issue{
		id: ConfigInvalidId,
		mdMsg: `
# Invalid build configuration

A field of ` + "`[tool.hatch.build]`" + ` or ` + "`[tool.hatch.build.targets.pyz]`" + ` has the wrong type or format.

## Expected fields
- **main**: string of the form ` + "`pkg.module:callable`" + ` (required)
- **interpreter**: string, default ` + "`/usr/bin/env python3`" + `
- **compressed**, **reproducible**, **bundle-dependencies**: booleans
- **include**, **exclude**, **packages**, **only-include**: lists of strings

~~~toml
[tool.hatch.build.targets.pyz]
main = "my_app.app:main"
compressed = true
~~~`,
	}

	installerFailedIssue = &Issue{
		id: InstallerFailedId,
		mdMsg: `
# Dependency installation failed

The package installer returned a non-zero exit status while vendoring the
project dependencies. No artifact was written.

## Things you can try
- Check the installer output above for the failing requirement
- Point ` + "`installer`" + ` at a working pip, e.g. ` + "`installer = \"python3.12 -m pip\"`" + `
- Disable vendoring with ` + "`bundle-dependencies = false`" + ` or ` + "`--no-deps`",
	}

	invalidEntryIssue = &Issue{
		id: InvalidEntryId,
		mdMsg: `
# Invalid archive entry

A selected path cannot be stored in the archive: it is a directory, an
absolute path, or it escapes the archive root with ` + "`..`" + `.

Check ` + "`force-include`" + ` destinations and ` + "`only-include`" + ` entries.`,
	}

	missingSourceIssue = &Issue{
		id: MissingSourceId,
		mdMsg: `
# Source file disappeared

A file selected for the archive no longer exists. Another process may have
removed it during the build. Re-run the build once the tree is stable.`,
	}

	issues = map[Id]*Issue{
		selectionFailedIssue.id: selectionFailedIssue,
		configInvalidIssue.id:   configInvalidIssue,
		installerFailedIssue.id: installerFailedIssue,
		invalidEntryIssue.id:    invalidEntryIssue,
		missingSourceIssue.id:   missingSourceIssue,
	}
)

// Values returns all catalogued issues ordered by Id.
func Values() []*Issue {
	ids := slices.Sorted(maps.Keys(issues))
	out := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		out = append(out, issues[id])
	}
	return out
}

// Get returns the issue with the given Id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
