package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/google/uuid"
)

// InvoiceMessage describes an outbound invoice email before MIME assembly.
type InvoiceMessage struct {
	To             string
	Cc             []string
	Subject        string
	HTMLBody       string
	TextBody       string
	AttachmentName string
	Attachment     []byte // PDF bytes; base64-encoded during assembly
}

// RecipientList builds the final recipient list: the primary recipient
// first, then the cc list with the account owner's email appended as the
// default cc. Duplicates are removed case-insensitively (first occurrence
// wins) and the total is capped at max.
func RecipientList(to string, cc []string, defaultCc string, max int) []string {
	candidates := append([]string{to}, cc...)
	if defaultCc != "" {
		candidates = append(candidates, defaultCc)
	}

	seen := make(map[string]bool, len(candidates))
	result := make([]string, 0, len(candidates))
	for _, addr := range candidates {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, addr)
		if max > 0 && len(result) == max {
			break
		}
	}
	return result
}

// Build assembles the full MIME message: multipart/mixed wrapping a
// multipart/alternative (text + HTML) part and the base64 PDF attachment.
// It returns the generated message id and the raw message bytes.
func (m *InvoiceMessage) Build(from string, recipients []string) (string, []byte, error) {
	if len(recipients) == 0 {
		return "", nil, fmt.Errorf("invoice email requires at least one recipient")
	}

	messageID := fmt.Sprintf("<%s@kash-money>", uuid.NewString())

	var buf bytes.Buffer
	mixed := multipart.NewWriter(&buf)

	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", recipients[0]),
	}
	if len(recipients) > 1 {
		headers = append(headers, fmt.Sprintf("Cc: %s", strings.Join(recipients[1:], ", ")))
	}
	headers = append(headers,
		fmt.Sprintf("Subject: %s", m.Subject),
		fmt.Sprintf("Message-Id: %s", messageID),
		"MIME-Version: 1.0",
		fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q", mixed.Boundary()),
	)
	buf.Reset()
	buf.WriteString(strings.Join(headers, "\r\n"))
	buf.WriteString("\r\n\r\n")

	// Body: text and HTML alternatives.
	altBuf := &bytes.Buffer{}
	alt := multipart.NewWriter(altBuf)
	textPart, err := alt.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to create text part: %w", err)
	}
	fmt.Fprint(textPart, m.TextBody)

	htmlPart, err := alt.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=utf-8"},
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to create html part: %w", err)
	}
	fmt.Fprint(htmlPart, m.HTMLBody)
	if err := alt.Close(); err != nil {
		return "", nil, fmt.Errorf("failed to close alternative part: %w", err)
	}

	bodyPart, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type": {fmt.Sprintf("multipart/alternative; boundary=%q", alt.Boundary())},
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to create body part: %w", err)
	}
	if _, err := bodyPart.Write(altBuf.Bytes()); err != nil {
		return "", nil, fmt.Errorf("failed to write body part: %w", err)
	}

	// PDF attachment, base64 with 76-char lines per RFC 2045.
	if len(m.Attachment) > 0 {
		name := m.AttachmentName
		if name == "" {
			name = "invoice.pdf"
		}
		attachPart, err := mixed.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {fmt.Sprintf("application/pdf; name=%q", name)},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", name)},
		})
		if err != nil {
			return "", nil, fmt.Errorf("failed to create attachment part: %w", err)
		}
		encoded := base64.StdEncoding.EncodeToString(m.Attachment)
		for len(encoded) > 0 {
			n := 76
			if len(encoded) < n {
				n = len(encoded)
			}
			if _, err := attachPart.Write([]byte(encoded[:n] + "\r\n")); err != nil {
				return "", nil, fmt.Errorf("failed to write attachment: %w", err)
			}
			encoded = encoded[n:]
		}
	}

	if err := mixed.Close(); err != nil {
		return "", nil, fmt.Errorf("failed to close message: %w", err)
	}

	return messageID, buf.Bytes(), nil
}
