package web

import (
	"net/url"
	"reflect"
	"testing"
	"time"
)

// Wednesday; the Monday of its week is 2025-12-15.
var formNow = time.Date(2025, time.December, 17, 10, 0, 0, 0, time.UTC)

func TestParseDateInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{
			name:  "single date",
			input: "2025-12-30",
			want:  []string{"2025-12-30"},
		},
		{
			name:  "multiline with blanks",
			input: "2025-12-30\n\n  2025-12-31  \n",
			want:  []string{"2025-12-30", "2025-12-31"},
		},
		{
			name:  "current week range",
			input: "0-0",
			want: []string{
				"2025-12-15", "2025-12-16", "2025-12-17", "2025-12-18",
				"2025-12-19", "2025-12-20", "2025-12-21",
			},
		},
		{
			name:  "next week range",
			input: "1-1",
			want: []string{
				"2025-12-22", "2025-12-23", "2025-12-24", "2025-12-25",
				"2025-12-26", "2025-12-27", "2025-12-28",
			},
		},
		{
			name:  "two week range length",
			input: "0-1",
			want:  nil, // length checked below
		},
		{
			name:    "reversed week range",
			input:   "3-1",
			wantErr: true,
		},
		{
			name:    "garbage date",
			input:   "tomorrow",
			wantErr: true,
		},
		{
			name:    "wrong format",
			input:   "30.12.2025",
			wantErr: true,
		},
		{
			name:  "empty",
			input: "   ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseDateInput(tt.input, formNow)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseDateInput(%q) error = nil, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDateInput(%q): %v", tt.input, err)
			}
			if tt.input == "0-1" {
				if len(got) != 14 {
					t.Fatalf("len = %d, want 14", len(got))
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseDateInput(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func telegramForm() url.Values {
	return url.Values{
		"doctor_url":         {"https://www.navstevalekara.sk/lekari/mudr-jana-novakova-d15313.html"},
		"target_dates":       {"2025-12-30\n2025-12-31"},
		"notification_type":  {"telegram"},
		"telegram_bot_token": {"123456:token"},
		"telegram_chat_id":   {"-100200300"},
	}
}

func TestParseCreateForm(t *testing.T) {
	t.Parallel()

	t.Run("valid telegram", func(t *testing.T) {
		t.Parallel()
		f, err := parseCreateForm(telegramForm(), formNow)
		if err != nil {
			t.Fatalf("parseCreateForm: %v", err)
		}
		if f.Channel != "telegram" {
			t.Errorf("Channel = %q", f.Channel)
		}
		if !reflect.DeepEqual(f.TargetDates, []string{"2025-12-30", "2025-12-31"}) {
			t.Errorf("TargetDates = %v", f.TargetDates)
		}
	})

	t.Run("valid email", func(t *testing.T) {
		t.Parallel()
		form := telegramForm()
		form.Set("notification_type", "email")
		form.Set("email", "jana@example.sk")
		f, err := parseCreateForm(form, formNow)
		if err != nil {
			t.Fatalf("parseCreateForm: %v", err)
		}
		if f.Email != "jana@example.sk" {
			t.Errorf("Email = %q", f.Email)
		}
	})

	t.Run("duplicate dates collapse", func(t *testing.T) {
		t.Parallel()
		form := telegramForm()
		form["target_dates"] = []string{"2025-12-30", "2025-12-30\n2025-12-31"}
		f, err := parseCreateForm(form, formNow)
		if err != nil {
			t.Fatalf("parseCreateForm: %v", err)
		}
		if !reflect.DeepEqual(f.TargetDates, []string{"2025-12-30", "2025-12-31"}) {
			t.Errorf("TargetDates = %v", f.TargetDates)
		}
	})

	t.Run("rejections", func(t *testing.T) {
		t.Parallel()
		mutations := []struct {
			name string
			mut  func(url.Values)
		}{
			{"missing url", func(v url.Values) { v.Del("doctor_url") }},
			{"no dates", func(v url.Values) { v.Set("target_dates", "  ") }},
			{"bad date", func(v url.Values) { v.Set("target_dates", "31.12.2025") }},
			{"unknown channel", func(v url.Values) { v.Set("notification_type", "sms") }},
			{"telegram missing token", func(v url.Values) { v.Del("telegram_bot_token") }},
			{"telegram missing chat", func(v url.Values) { v.Del("telegram_chat_id") }},
			{"email missing address", func(v url.Values) {
				v.Set("notification_type", "email")
			}},
			{"email invalid address", func(v url.Values) {
				v.Set("notification_type", "email")
				v.Set("email", "not-an-email")
			}},
		}
		for _, m := range mutations {
			form := telegramForm()
			m.mut(form)
			if _, err := parseCreateForm(form, formNow); err == nil {
				t.Errorf("%s: error = nil, want error", m.name)
			}
		}
	})
}
