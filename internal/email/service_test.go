package email

import (
	"strings"
	"testing"
)

func TestServiceIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{
			name:     "empty config",
			config:   Config{},
			expected: false,
		},
		{
			name: "missing host",
			config: Config{
				Port: "587",
				From: "exports@example.com",
			},
			expected: false,
		},
		{
			name: "missing port",
			config: Config{
				Host: "smtp.example.com",
				From: "exports@example.com",
			},
			expected: false,
		},
		{
			name: "missing from",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
			},
			expected: false,
		},
		{
			name: "fully configured",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
				From: "exports@example.com",
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.config)
			if svc.IsConfigured() != tt.expected {
				t.Errorf("IsConfigured() = %v, want %v", svc.IsConfigured(), tt.expected)
			}
		})
	}
}

func TestSendWhenUnconfigured(t *testing.T) {
	svc := NewService(Config{})
	if err := svc.SendEmail([]string{"a@example.com"}, "subject", "body"); err == nil {
		t.Error("SendEmail on unconfigured service should fail")
	}
	if err := svc.SendExport([]string{"a@example.com"}, "bid.pdf", "https://example.com/bid.pdf", ""); err == nil {
		t.Error("SendExport on unconfigured service should fail")
	}
}

func TestExportTemplateRenders(t *testing.T) {
	html, err := renderTemplate(exportEmailTemplate, ExportData{
		AppName:     "CareDraft",
		Filename:    "elderly-care-proposal-2026-08-28.pdf",
		DownloadURL: "https://files.example.com/elderly-care-proposal-2026-08-28.pdf",
		Message:     "Final version for the panel.",
	})
	if err != nil {
		t.Fatalf("renderTemplate: %v", err)
	}
	for _, want := range []string{
		"elderly-care-proposal-2026-08-28.pdf",
		"https://files.example.com/elderly-care-proposal-2026-08-28.pdf",
		"Final version for the panel.",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered template missing %q", want)
		}
	}
}

func TestExportTemplateOmitsEmptyMessage(t *testing.T) {
	html, err := renderTemplate(exportEmailTemplate, ExportData{
		AppName:     "CareDraft",
		Filename:    "bid.docx",
		DownloadURL: "https://files.example.com/bid.docx",
	})
	if err != nil {
		t.Fatalf("renderTemplate: %v", err)
	}
	if strings.Contains(html, `class="note"`) {
		t.Error("empty message should not render the note block")
	}
}
