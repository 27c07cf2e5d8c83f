package model

import "time"

// TimerConfig contains runtime settings for the pomodoro timer.
type TimerConfig struct {
	Work       time.Duration
	ShortBreak time.Duration
	LongBreak  time.Duration

	// LongBreakInterval is the number of work sessions between long breaks.
	LongBreakInterval uint32

	AutoStartBreaks bool
	AutoStartWork   bool
}

// Duration returns the configured length of mode.
func (config TimerConfig) Duration(mode Mode) time.Duration {
	switch mode {
	case ModeShortBreak:
		return config.ShortBreak
	case ModeLongBreak:
		return config.LongBreak
	default:
		return config.Work
	}
}

// NextBreak returns the break that follows the given number of completed sessions.
func (config TimerConfig) NextBreak(sessionsCompleted uint32) Mode {
	if config.LongBreakInterval > 0 && sessionsCompleted%config.LongBreakInterval == 0 {
		return ModeLongBreak
	}
	return ModeShortBreak
}

// Settings defines editable user preferences.
type Settings struct {
	Work              time.Duration
	ShortBreak        time.Duration
	LongBreak         time.Duration
	LongBreakInterval uint32
	AutoStartBreaks   bool
	AutoStartWork     bool
	PauseWhenIdle     bool
	StrictBreak       bool
	Notifications     bool
	Autostart         bool
	LogLevel          string
}

// DefaultSettings returns default settings for pomodoro.
func DefaultSettings() Settings {
	return Settings{
		Work:              25 * time.Minute,
		ShortBreak:        5 * time.Minute,
		LongBreak:         15 * time.Minute,
		LongBreakInterval: 4,
		Notifications:     true,
		LogLevel:          "info",
	}
}

// TimerConfig converts settings to TimerConfig.
func (settings Settings) TimerConfig() TimerConfig {
	return TimerConfig{
		Work:              settings.Work,
		ShortBreak:        settings.ShortBreak,
		LongBreak:         settings.LongBreak,
		LongBreakInterval: settings.LongBreakInterval,
		AutoStartBreaks:   settings.AutoStartBreaks,
		AutoStartWork:     settings.AutoStartWork,
	}
}
