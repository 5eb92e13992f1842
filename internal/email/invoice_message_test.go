package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipientList(t *testing.T) {
	recipients := RecipientList("client@acme.com", []string{"accounts@acme.com"}, "owner@me.com", 3)
	assert.Equal(t, []string{"client@acme.com", "accounts@acme.com", "owner@me.com"}, recipients)
}

func TestRecipientListCap(t *testing.T) {
	recipients := RecipientList("client@acme.com", []string{"a@x.com", "b@x.com", "c@x.com"}, "owner@me.com", 3)
	// Primary recipient first, then cc in order; the default cc falls off
	// the end once the cap is hit.
	assert.Equal(t, []string{"client@acme.com", "a@x.com", "b@x.com"}, recipients)
}

func TestRecipientListDedupe(t *testing.T) {
	// Case-insensitive, first occurrence wins.
	recipients := RecipientList("Client@Acme.com", []string{"client@acme.com", "owner@me.com"}, "OWNER@me.com", 3)
	assert.Equal(t, []string{"Client@Acme.com", "owner@me.com"}, recipients)
}

func TestRecipientListSkipsBlanks(t *testing.T) {
	recipients := RecipientList("client@acme.com", []string{"", "  "}, "", 3)
	assert.Equal(t, []string{"client@acme.com"}, recipients)
}

func TestInvoiceMessageBuild(t *testing.T) {
	msg := &InvoiceMessage{
		To:             "client@acme.com",
		Subject:        "Invoice INV-2026-0007 from Example Co",
		HTMLBody:       "<p>Please find the invoice attached.</p>",
		TextBody:       "Please find the invoice attached.",
		AttachmentName: "INV-2026-0007.pdf",
		Attachment:     []byte("%PDF-1.4 fake"),
	}

	messageID, raw, err := msg.Build("billing@example.com", []string{"client@acme.com", "owner@example.com"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(messageID, "<"))
	assert.True(t, strings.HasSuffix(messageID, "@kash-money>"))

	body := string(raw)
	assert.Contains(t, body, "From: billing@example.com")
	assert.Contains(t, body, "To: client@acme.com")
	assert.Contains(t, body, "Cc: owner@example.com")
	assert.Contains(t, body, "Subject: Invoice INV-2026-0007 from Example Co")
	assert.Contains(t, body, "Message-Id: "+messageID)
	assert.Contains(t, body, "multipart/mixed")
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "text/plain; charset=utf-8")
	assert.Contains(t, body, "text/html; charset=utf-8")
	assert.Contains(t, body, `application/pdf; name="INV-2026-0007.pdf"`)
	assert.Contains(t, body, "Content-Transfer-Encoding: base64")
	// Raw PDF bytes must never appear unencoded.
	assert.NotContains(t, body, "%PDF-1.4 fake")
}

func TestInvoiceMessageBuildNoRecipients(t *testing.T) {
	msg := &InvoiceMessage{Subject: "x"}
	_, _, err := msg.Build("billing@example.com", nil)
	assert.Error(t, err)
}
