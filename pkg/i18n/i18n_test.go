package i18n

import "testing"

func TestParseAcceptLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   Locale
	}{
		{"", LocaleEn},
		{"hi", LocaleHi},
		{"hi-IN,hi;q=0.9,en-US;q=0.8", LocaleHi},
		{"en-US,en;q=0.9", LocaleEn},
		{"fr-FR,fr;q=0.9", LocaleEn}, // unsupported → fallback
		{"fr-FR,hi;q=0.5", LocaleHi},
	}

	for _, tt := range tests {
		got := ParseAcceptLanguage(tt.header)
		if got != tt.want {
			t.Errorf("ParseAcceptLanguage(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestBundleTranslation(t *testing.T) {
	b := Default()

	if got := b.T(LocaleEn, "chat.blocked"); got != "User blocked" {
		t.Errorf("en chat.blocked = %q", got)
	}

	if got := b.T(LocaleHi, "chat.blocked"); got != "उपयोगकर्ता अवरुद्ध" {
		t.Errorf("hi chat.blocked = %q", got)
	}

	if got := b.T(LocaleHi, "unknown.key"); got != "unknown.key" {
		t.Errorf("unknown key = %q, want key itself", got)
	}

	if got := b.T(LocaleEn, "push.new_message_title", "Asha"); got != "New message from Asha" {
		t.Errorf("format args = %q", got)
	}
}

func TestLoadMessagesMerges(t *testing.T) {
	b := NewBundle(LocaleEn)
	b.LoadMessages(LocaleEn, map[string]string{"a": "A"})
	b.LoadMessages(LocaleEn, map[string]string{"b": "B"})

	if b.T(LocaleEn, "a") != "A" || b.T(LocaleEn, "b") != "B" {
		t.Error("expected both keys after merge")
	}
	if b.T(LocaleHi, "a") != "A" {
		t.Error("expected fallback locale lookup")
	}
}

func TestParseLocale(t *testing.T) {
	if l, ok := ParseLocale("hi-IN"); !ok || l != LocaleHi {
		t.Errorf("ParseLocale(hi-IN) = %q, %v", l, ok)
	}
	if l, ok := ParseLocale(" EN "); !ok || l != LocaleEn {
		t.Errorf("ParseLocale(EN) = %q, %v", l, ok)
	}
	if _, ok := ParseLocale("fr"); ok {
		t.Error("fr must not be supported")
	}
	if _, ok := ParseLocale(""); ok {
		t.Error("empty tag must not match")
	}
}
