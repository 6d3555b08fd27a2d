package devproxyconfig

import "testing"

func TestValidateSchemaRejectsMissingURLsToWatch(t *testing.T) {
	if err := ValidateSchema([]byte(`{"plugins": []}`)); err == nil {
		t.Fatal("expected schema validation error for missing urlsToWatch")
	}
}

func TestValidateSchemaAcceptsMinimalDocument(t *testing.T) {
	if err := ValidateSchema([]byte(`{"urlsToWatch": []}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateSchemaRejectsPluginMissingEnabled(t *testing.T) {
	doc := `{"urlsToWatch": [], "plugins": [{"name": "X"}]}`
	if err := ValidateSchema([]byte(doc)); err == nil {
		t.Fatal("expected schema validation error for plugin missing enabled")
	}
}
