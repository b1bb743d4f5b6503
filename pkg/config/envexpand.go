package config

import (
	"bytes"
	"os"
	"strings"
	"text/template"
)

// ExpandEnv expands {{.VAR_NAME}} placeholders in YAML content against
// the process environment before parsing, so secrets (API keys, tokens,
// connection strings) never live in the config file itself.
//
// Examples:
//   - {{.GOOGLE_API_KEY}} → value of GOOGLE_API_KEY environment variable
//   - {{.DB_HOST}}:{{.DB_PORT}} → hostname:port with both variables expanded
//
// Missing variables expand to an empty string. ${VAR} and $VAR are left
// untouched — they collide with shell-style syntax some masking regexes
// embed in config (e.g. `user_\${USER_ID}_.*`), so only the {{.VAR}}
// form is treated as a placeholder.
//
// Malformed template syntax (unclosed braces, undefined pipeline
// functions, field access on a non-struct value) is passed through
// unchanged rather than erroring here — the YAML parser downstream will
// either accept it as a string literal or fail with a clearer message.
func ExpandEnv(data []byte) []byte {
	tmpl, err := template.New("config").Option("missingkey=zero").Parse(string(data))
	if err != nil {
		return data
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, environMap()); err != nil {
		return data
	}

	return buf.Bytes()
}

func environMap() map[string]string {
	env := os.Environ()
	m := make(map[string]string, len(env))
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}
