package control

import (
	"fmt"
	"strings"

	"pomodoro/internal/core/model"
)

// Locale selects the language of human-readable status output.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleTurkish Locale = "tr"
)

type labels struct {
	modes    map[model.Mode]string
	running  string
	paused   string
	mode     string
	sessions string
}

var localeLabels = map[Locale]labels{
	LocaleEnglish: {
		modes: map[model.Mode]string{
			model.ModeWork:       "Focus",
			model.ModeShortBreak: "Short Break",
			model.ModeLongBreak:  "Long Break",
		},
		running:  "Running",
		paused:   "Paused",
		mode:     "Mode",
		sessions: "Sessions",
	},
	LocaleTurkish: {
		modes: map[model.Mode]string{
			model.ModeWork:       "Odaklan",
			model.ModeShortBreak: "Kısa Mola",
			model.ModeLongBreak:  "Uzun Mola",
		},
		running:  "Çalışıyor",
		paused:   "Duraklatıldı",
		mode:     "Mod",
		sessions: "Oturum",
	},
}

// ParseLocale maps a locale tag such as "tr_TR.UTF-8" to a supported Locale,
// falling back to English.
func ParseLocale(tag string) Locale {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" || tag == "c" || tag == "posix" {
		return LocaleEnglish
	}
	language := tag
	if index := strings.IndexAny(language, "_.-@"); index >= 0 {
		language = language[:index]
	}
	if _, ok := localeLabels[Locale(language)]; ok {
		return Locale(language)
	}
	return LocaleEnglish
}

// DetectLocale picks the locale from the usual environment variables in
// POSIX precedence order.
func DetectLocale(getenv func(string) string) Locale {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if value := getenv(key); value != "" {
			return ParseLocale(value)
		}
	}
	return LocaleEnglish
}

// ModeLabel returns the localized name of mode, or the raw string when the
// mode is unknown.
func ModeLabel(mode model.Mode, locale Locale) string {
	if label, ok := labelsFor(locale).modes[mode]; ok {
		return label
	}
	return string(mode)
}

// FormatClock renders seconds as MM:SS. Minutes are not wrapped into hours.
func FormatClock(seconds uint32) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatStatus renders the single status line printed by `pomodoro status`.
func FormatStatus(snapshot model.Snapshot, locale Locale) string {
	text := labelsFor(locale)
	activity := text.paused
	if snapshot.IsActive {
		activity = text.running
	}
	return fmt.Sprintf("%s: %s | %s | %s | %s: %d",
		text.mode, ModeLabel(snapshot.Mode, locale),
		activity,
		FormatClock(snapshot.TimeLeft),
		text.sessions, snapshot.SessionsCompleted,
	)
}

func labelsFor(locale Locale) labels {
	if text, ok := localeLabels[locale]; ok {
		return text
	}
	return localeLabels[LocaleEnglish]
}
