package manifest

import (
	"os"
	"testing"
)

func mustRead(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(testPath(name))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestValidateFile_Valid(t *testing.T) {
	tests := []struct {
		doc  Document
		file string
	}{
		{DocManifest, "valid-manifest.json"},
		{DocRelease, "valid-release.json"},
		{DocIndex, "valid-index.json"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			result, err := ValidateFile(tt.doc, testPath(tt.file))
			if err != nil {
				t.Fatalf("ValidateFile(%s) error: %v", tt.file, err)
			}
			if !result.Valid {
				t.Errorf("expected valid, got %d issues:", len(result.Issues))
				for _, issue := range result.Issues {
					t.Errorf("  path=%s keyword=%s message=%s", issue.Path, issue.Keyword, issue.Message)
				}
			}
		})
	}
}

func TestValidateFile_Invalid(t *testing.T) {
	tests := []struct {
		doc  Document
		file string
		desc string
	}{
		{DocManifest, "invalid-missing-id.json", "missing required id"},
		{DocManifest, "invalid-bad-id.json", "id is not filesystem safe"},
		{DocManifest, "invalid-bad-version.json", "version is not semver"},
		{DocRelease, "invalid-release-checksum.json", "checksum is not a sha256 digest"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			result, err := ValidateFile(tt.doc, testPath(tt.file))
			if err != nil {
				t.Fatalf("ValidateFile(%s) unexpected error: %v", tt.file, err)
			}
			if result.Valid {
				t.Errorf("expected invalid for %s (%s)", tt.file, tt.desc)
			}
			if len(result.Issues) == 0 {
				t.Errorf("expected at least one issue for %s", tt.file)
			}
		})
	}
}

func TestValidate_IssueFields(t *testing.T) {
	result, err := ValidateFile(DocManifest, testPath("invalid-bad-id.json"))
	if err != nil {
		t.Fatalf("ValidateFile error: %v", err)
	}
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	found := false
	for _, issue := range result.Issues {
		if issue.Path == "/id" && issue.Keyword == "pattern" && issue.Message != "" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a pattern issue on /id, got %+v", result.Issues)
	}
	if result.Error() == "" {
		t.Error("expected non-empty Error() text")
	}
}

func TestValidate_MalformedJSON(t *testing.T) {
	_, err := ValidateFile(DocManifest, testPath("invalid-not-json.json"))
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestValidate_SchemasCompile(t *testing.T) {
	for _, d := range []Document{DocManifest, DocRelease, DocIndex} {
		schema, err := getSchema(d)
		if err != nil {
			t.Fatalf("getSchema(%s) error: %v", d, err)
		}
		if schema == nil {
			t.Fatalf("getSchema(%s) returned nil", d)
		}
	}
}
