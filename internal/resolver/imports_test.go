package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codearch/internal/model"
)

func TestIsImportMatch(t *testing.T) {
	cases := []struct {
		imp, file string
		want      bool
	}{
		{"utils.helpers", "utils/helpers.py", true},
		{"models", "models/__init__.py", true},
		{"./models", "models/index.js", true},
		{"utils", "utils/helpers.js", true},
		{"utils", "helpers/utils.py", false},
		{"utils", "utils/deep/helpers.py", false},
		{"Utils.Helpers", `utils\helpers.py`, true},
		{"app", "app.py", true},
		{".", "app.py", false},
		{"lib", "library.js", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsImportMatch(tc.imp, tc.file), "%s vs %s", tc.imp, tc.file)
	}
}

func TestExtractImports(t *testing.T) {
	py := "def load():\n    from utils.helpers import parse\n    import json\n"
	assert.Equal(t, []string{"utils.helpers", "parse", "json"}, ExtractImports(py))

	js := "function load() {\n  const fs = require('fs');\n  const h = require(\"./helpers\");\n}"
	assert.Equal(t, []string{"fs", "./helpers"}, ExtractImports(js))
}

func TestDetector_DetectImports(t *testing.T) {
	files := []model.File{
		{ID: "f1", Path: "app/main.py"},
		{ID: "f2", Path: "utils/helpers.py"},
		{ID: "f3", Path: "utils/__init__.py"},
	}
	byFile := map[string][]model.Entity{
		"f1": {
			{ID: "e1", RepoID: "repo", FileID: "f1", Name: "main",
				Snippet: "def main():\n    from utils.helpers import parse\n    import missing\n"},
			{ID: "e2", RepoID: "repo", FileID: "f1", Name: "noop"},
		},
		"f3": {
			{ID: "e3", RepoID: "repo", FileID: "f3", Name: "setup",
				Snippet: "def setup():\n    import utils\n"},
		},
	}

	rels := NewDetector().DetectImports(files, byFile)
	require.Len(t, rels, 2)

	first := rels[0]
	assert.Equal(t, model.RelationImports, first.Kind)
	assert.Equal(t, "e1", first.SourceID)
	assert.Empty(t, first.TargetID)
	assert.False(t, first.HasTarget())
	require.NotNil(t, first.Metadata)
	assert.Equal(t, model.ImportMetadata{SourceFile: "app/main.py", TargetFile: "utils/helpers.py", ImportName: "utils.helpers"}, *first.Metadata)

	// "utils" matches utils/helpers.py before utils/__init__.py: first file in order wins.
	second := rels[1]
	assert.Equal(t, "e3", second.SourceID)
	assert.Equal(t, "utils/helpers.py", second.Metadata.TargetFile)
}
