// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	t.Parallel()

	if SelectionFailedId != 1 {
		t.Errorf("SelectionFailedId = %d, want 1", SelectionFailedId)
	}

	seen := make(map[Id]bool)
	for _, i := range Values() {
		if seen[i.Id()] {
			t.Errorf("duplicate ID: %d", i.Id())
		}
		seen[i.Id()] = true
		if strings.TrimSpace(string(i.MarkdownMsg())) == "" {
			t.Errorf("issue %d has an empty message", i.Id())
		}
	}
	if len(seen) != 5 {
		t.Errorf("catalog has %d issues, want 5", len(seen))
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	i := Get(SelectionFailedId)
	if i == nil {
		t.Fatal("Get(SelectionFailedId) returned nil")
	}
	if !strings.Contains(string(i.MarkdownMsg()), `packages = ["src/foo"]`) {
		t.Error("selection issue should show an explicit packages example")
	}
	if len(i.DocLinks()) == 0 {
		t.Error("selection issue should link to the build docs")
	}
	if Get(Id(999)) != nil {
		t.Error("Get(999) should return nil")
	}
}

func TestIssue_Render(t *testing.T) {
	t.Parallel()

	out, err := Get(ConfigInvalidId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "Invalid build configuration") {
		t.Errorf("Render() output missing title:\n%s", out)
	}
}
