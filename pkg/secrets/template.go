package secrets

import (
	"fmt"
	"strings"
	"text/template"
)

// RenderCommunity resolves a community string that references stored
// secrets, e.g. `{{ secret "rack3-rw" }}`. Plain strings are returned
// unchanged and the store may be nil for them.
func RenderCommunity(raw string, store SecretStore) (string, error) {
	if !strings.Contains(raw, "{{") {
		return raw, nil
	}
	if store == nil {
		return "", fmt.Errorf("community references a secret but no secret store is configured")
	}

	tmpl, err := template.New("community").
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"secret": store.GetSecretByID,
		}).
		Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse community template: %w", err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, nil); err != nil {
		return "", fmt.Errorf("failed to render community template: %w", err)
	}
	return strings.TrimSpace(b.String()), nil
}
