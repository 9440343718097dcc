package web

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ladislavh/terminwatch/internal/watcher"
)

const isoDate = "2006-01-02"

var (
	weekRangeRe = regexp.MustCompile(`^\d+-\d+$`)
	emailRe     = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// createForm holds the validated fields of the watcher creation form.
type createForm struct {
	DoctorURL        string
	TargetDates      []string
	Channel          string
	TelegramBotToken string
	TelegramChatID   string
	Email            string
}

// parseCreateForm validates the watcher creation form. Error messages are
// user-facing and shown verbatim, hence Slovak.
func parseCreateForm(form url.Values, now time.Time) (*createForm, error) {
	doctorURL := strings.TrimSpace(form.Get("doctor_url"))
	if doctorURL == "" {
		return nil, fmt.Errorf("Chýba adresa lekára")
	}

	var dates []string
	for _, raw := range form["target_dates"] {
		expanded, err := parseDateInput(raw, now)
		if err != nil {
			return nil, err
		}
		dates = append(dates, expanded...)
	}
	dates = dedupeDates(dates)
	if len(dates) == 0 {
		return nil, fmt.Errorf("Musíte vybrať aspoň jeden dátum")
	}

	f := &createForm{
		DoctorURL:   doctorURL,
		TargetDates: dates,
		Channel:     strings.TrimSpace(form.Get("notification_type")),
	}

	switch f.Channel {
	case watcher.ChannelTelegram:
		f.TelegramBotToken = strings.TrimSpace(form.Get("telegram_bot_token"))
		f.TelegramChatID = strings.TrimSpace(form.Get("telegram_chat_id"))
		if f.TelegramBotToken == "" || f.TelegramChatID == "" {
			return nil, fmt.Errorf("Pre Telegram sú povinné Bot Token a Chat ID")
		}
	case watcher.ChannelEmail:
		f.Email = strings.TrimSpace(form.Get("email"))
		if f.Email == "" {
			return nil, fmt.Errorf("Pre Email je povinná emailová adresa")
		}
		if !emailRe.MatchString(f.Email) {
			return nil, fmt.Errorf("Neplatná emailová adresa")
		}
	default:
		return nil, fmt.Errorf("Neplatný typ notifikácie")
	}

	return f, nil
}

// parseDateInput expands one target-date field. Accepts either exact ISO
// dates (one per line) or a week range like "0-3", which covers every day
// of those weeks counted from the Monday of the current week.
func parseDateInput(input string, now time.Time) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	if weekRangeRe.MatchString(input) {
		parts := strings.SplitN(input, "-", 2)
		startWeek, _ := strconv.Atoi(parts[0])
		endWeek, _ := strconv.Atoi(parts[1])
		if endWeek < startWeek {
			return nil, fmt.Errorf("Neplatný rozsah týždňov: %s", input)
		}

		// Monday of the current week.
		daysSinceMonday := (int(now.Weekday()) + 6) % 7
		weekStart := now.AddDate(0, 0, -daysSinceMonday)

		var dates []string
		for week := startWeek; week <= endWeek; week++ {
			for day := 0; day < 7; day++ {
				d := weekStart.AddDate(0, 0, week*7+day)
				dates = append(dates, d.Format(isoDate))
			}
		}
		return dates, nil
	}

	var dates []string
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, err := time.Parse(isoDate, line); err != nil {
			return nil, fmt.Errorf("Neplatný dátum: %s", line)
		}
		dates = append(dates, line)
	}
	return dates, nil
}

func dedupeDates(dates []string) []string {
	seen := make(map[string]bool, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
