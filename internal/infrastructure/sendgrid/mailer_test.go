package sendgridinfra

import (
	"testing"

	"github.com/KenzoYff/evently-ux-platform-94/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTML_EscapesAndSplits(t *testing.T) {
	out, err := renderHTML("Evently", "Your code", "Code: 123456\n\n<script>x</script>")
	require.NoError(t, err)

	assert.Contains(t, out, "<h2 style=\"color: #4f46e5;\">Your code</h2>")
	assert.Contains(t, out, "<p>Code: 123456</p>")
	assert.Contains(t, out, "&lt;script&gt;x&lt;/script&gt;")
	assert.NotContains(t, out, "<script>")
}

func TestBuild_SandboxMode(t *testing.T) {
	m := NewMailer(&config.Config{SendgridAPIKey: "k", MailFromName: "Evently", SMTPFrom: "noreply@example.com", SendgridSandbox: true})

	msg, err := m.build("ana@example.com", "Hi", "body")
	require.NoError(t, err)
	require.NotNil(t, msg.MailSettings)
	require.NotNil(t, msg.MailSettings.SandboxMode)
	assert.True(t, *msg.MailSettings.SandboxMode.Enable)
	assert.Equal(t, "noreply@example.com", msg.From.Address)
	require.Len(t, msg.Personalizations, 1)
	assert.Equal(t, "ana@example.com", msg.Personalizations[0].To[0].Address)
}

func TestBuild_NoSandbox(t *testing.T) {
	m := NewMailer(&config.Config{SendgridAPIKey: "k", SMTPFrom: "noreply@example.com"})

	msg, err := m.build("ana@example.com", "Hi", "body")
	require.NoError(t, err)
	assert.Nil(t, msg.MailSettings)
}
