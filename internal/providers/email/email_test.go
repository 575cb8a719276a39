package email

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMIMEIncludesAttachment(t *testing.T) {
	raw, err := buildMIME("from@example.com", Message{
		To:       []string{"a@example.com", "b@example.com"},
		Subject:  "Tax invoice V/2024-25/00001",
		HTMLBody: "<p>hello</p>",
		Attachments: []Attachment{{
			Filename:    "invoice.pdf",
			ContentType: "application/pdf",
			Data:        []byte("%PDF-1.4"),
		}},
	})
	require.NoError(t, err)

	body := string(raw)
	assert.Contains(t, body, "To: a@example.com, b@example.com")
	assert.Contains(t, body, "multipart/mixed")
	assert.Contains(t, body, `filename="invoice.pdf"`)
	assert.Contains(t, body, "JVBERi0xLjQ=")
	assert.True(t, strings.Contains(body, "<p>hello</p>"))
}

func TestNoOpProviderRendersTemplate(t *testing.T) {
	p := &NoOpProvider{}
	err := p.SendTemplate(context.Background(), []string{"c@example.com"}, "invoice_issued", map[string]any{
		"invoice_number": "V/2024-25/00001",
		"customer_name":  "Asha",
		"gross_total":    "1,120.00",
	}, Attachment{Filename: "x.pdf"})
	require.NoError(t, err)

	sent := p.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Tax invoice V/2024-25/00001", sent[0].Subject)
	assert.Contains(t, sent[0].HTMLBody, "Dear Asha")
	assert.Len(t, sent[0].Attachments, 1)
}

func TestSMTPRejectsEmptyRecipients(t *testing.T) {
	p := NewSMTP(Config{Host: "localhost", Port: 1025})
	err := p.Send(context.Background(), Message{Subject: "x"})
	assert.Error(t, err)
}
