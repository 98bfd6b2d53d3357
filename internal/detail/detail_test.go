package detail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromArgs_FieldPriority(t *testing.T) {
	tests := []struct {
		name string
		args string
		want string
	}{
		{
			name: "command wins over file_path",
			args: `{"file_path":"/tmp/x","command":"ls -la"}`,
			want: "ls -la",
		},
		{
			name: "file_path when no command",
			args: `{"file_path":"/src/main.go","pattern":"func"}`,
			want: "/src/main.go",
		},
		{
			name: "pattern alone",
			args: `{"pattern":"TODO"}`,
			want: "TODO",
		},
		{
			name: "url alone",
			args: `{"url":"https://example.com/doc"}`,
			want: "https://example.com/doc",
		},
		{
			name: "no known fields",
			args: `{"limit":5}`,
			want: "",
		},
		{
			name: "empty field skipped",
			args: `{"command":"","path":"/etc"}`,
			want: "/etc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromArgs([]byte(tt.args)))
		})
	}
}

func TestFromArgs_MalformedJSON(t *testing.T) {
	assert.Equal(t, "", FromArgs([]byte(`{"command":"ls`)))
	assert.Equal(t, "", FromArgs([]byte("")))
	assert.Equal(t, "", FromArgs([]byte("not json at all")))
}

func TestFromArgs_FirstLineOnly(t *testing.T) {
	got := FromArgs([]byte(`{"command":"git status\ngit diff"}`))
	assert.Equal(t, "git status", got)

	got = FromArgs([]byte(`{"description":"step one\r\nstep two"}`))
	assert.Equal(t, "step one", got)
}

func TestFromArgs_RedactsCommandOnly(t *testing.T) {
	got := FromArgs([]byte(`{"command":"export TOKEN=abc123 && run"}`))
	assert.Equal(t, "export TOKEN=*** && run", got)

	// Non-command fields are not redacted.
	got = FromArgs([]byte(`{"description":"set TOKEN=abc123"}`))
	assert.Equal(t, "set TOKEN=abc123", got)
}

func TestRedact(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"export API_KEY=sk-live-42 && make", "export API_KEY=*** && make"},
		{"curl -H 'Authorization: Bearer eyJabc.def'", "curl -H 'Authorization: Bearer ***"},
		{"bearer tok123", "bearer ***"},
		{"echo hello", "echo hello"},
		{"A=1 B=2 cmd", "A=*** B=*** cmd"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Redact(tt.in), "input %q", tt.in)
	}
}
