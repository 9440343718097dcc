package notify

import (
	"strings"
	"testing"

	"github.com/ladislavh/terminwatch/internal/slot"
)

func TestTelegramMessageSingular(t *testing.T) {
	t.Parallel()
	got := telegramMessage("MUDr. Jana Nováková",
		"https://www.navstevalekara.sk/a/x-d15313.html",
		[]slot.Slot{{Date: "2025-12-30", Time: "09:00"}})

	want := "[MUDr. Jana Nováková](https://www.navstevalekara.sk/a/x-d15313.html)\n\n" +
		"Termín: 2025-12-30 09:00 - OPEN"
	if got != want {
		t.Fatalf("message =\n%q\nwant\n%q", got, want)
	}
}

func TestTelegramMessagePluralSorted(t *testing.T) {
	t.Parallel()
	got := telegramMessage("Dr. X", "https://example.test", []slot.Slot{
		{Date: "2025-12-31", Time: "08:00"},
		{Date: "2025-12-30", Time: "10:20"},
		{Date: "2025-12-30", Time: "09:00"},
	})

	if !strings.Contains(got, "Nájdených 3 termínov:") {
		t.Errorf("missing plural header: %q", got)
	}
	// Bullets must come out in (date, time) order regardless of input order.
	i1 := strings.Index(got, "2025-12-30 09:00")
	i2 := strings.Index(got, "2025-12-30 10:20")
	i3 := strings.Index(got, "2025-12-31 08:00")
	if i1 == -1 || i2 == -1 || i3 == -1 || !(i1 < i2 && i2 < i3) {
		t.Errorf("slots not sorted: %q", got)
	}
}

func TestEmailSubject(t *testing.T) {
	t.Parallel()
	if got := emailSubject("Dr. X", 1); got != "1 nový termín u Dr. X" {
		t.Errorf("singular subject = %q", got)
	}
	if got := emailSubject("Dr. X", 4); got != "4 nových termínov u Dr. X" {
		t.Errorf("plural subject = %q", got)
	}
}

func TestEmailTextBody(t *testing.T) {
	t.Parallel()
	slots := []slot.Slot{
		{Date: "2025-12-30", Time: "09:00"},
		{Date: "2025-12-30", Time: "10:20"},
	}
	got := emailText("Dr. X", "https://example.test/d-d1.html", slots)

	for _, want := range []string{
		"Dr. X\n",
		"Nájdených 2 voľných termínov:",
		"• 2025-12-30 09:00\n",
		"• 2025-12-30 10:20\n",
		"Objednať sa: https://example.test/d-d1.html",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("body missing %q:\n%s", want, got)
		}
	}
}

func TestEmailHTMLRenders(t *testing.T) {
	t.Parallel()
	slots := []slot.Slot{{Date: "2025-12-30", Time: "09:00"}}
	got, err := emailHTML("Dr. & Co", "https://example.test", slots)
	if err != nil {
		t.Fatalf("emailHTML: %v", err)
	}
	if !strings.Contains(got, "Dr. &amp; Co") {
		t.Errorf("doctor name not escaped/rendered: %s", got)
	}
	if !strings.Contains(got, "Nájdený 1 voľný termín:") {
		t.Errorf("singular phrasing missing")
	}
	if !strings.Contains(got, "2025-12-30") {
		t.Errorf("slot date missing")
	}
}
