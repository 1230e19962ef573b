// Package scheduling holds per-user engagement preferences: how aggressively
// automation may act and when posts should go out.
package scheduling

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/luna-ai/luna/pkg/errkind"
)

// Platform caps. Preferences above these are clamped, not rejected; the
// caller asked for more than automation will ever do.
const (
	maxDailyLikes    = 120
	maxDailyComments = 30
	maxDailyFollows  = 40
)

// Preferences bounds automation volume and sets posting windows.
type Preferences struct {
	DailyLikes    int      `yaml:"daily_likes"`
	DailyComments int      `yaml:"daily_comments"`
	DailyFollows  int      `yaml:"daily_follows"`
	PostingTimes  []string `yaml:"posting_times"`
	QuietHours    []string `yaml:"quiet_hours,omitempty"`
}

// Defaults returns the safe baseline used when no preferences file exists.
func Defaults() Preferences {
	return Preferences{
		DailyLikes:    60,
		DailyComments: 15,
		DailyFollows:  20,
		PostingTimes:  []string{"08:00", "12:30", "19:00"},
	}
}

// Load reads preferences from a YAML file, fills gaps from Defaults, and
// clamps volumes to platform caps. An empty path or missing file yields
// Defaults without error.
func Load(path string) (Preferences, error) {
	prefs := Defaults()
	if path == "" {
		return prefs, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return prefs, nil
	}
	if err != nil {
		return prefs, errkind.Wrap(err, errkind.Internal, errkind.CodeInternal,
			fmt.Sprintf("read preferences file %s", path))
	}

	var loaded Preferences
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return prefs, errkind.Wrap(err, errkind.Format, errkind.CodeBadUpstreamFormat,
			fmt.Sprintf("parse preferences file %s", path))
	}

	prefs.merge(loaded)
	prefs.clamp()
	return prefs, nil
}

func (p *Preferences) merge(other Preferences) {
	if other.DailyLikes > 0 {
		p.DailyLikes = other.DailyLikes
	}
	if other.DailyComments > 0 {
		p.DailyComments = other.DailyComments
	}
	if other.DailyFollows > 0 {
		p.DailyFollows = other.DailyFollows
	}
	if len(other.PostingTimes) > 0 {
		p.PostingTimes = other.PostingTimes
	}
	if len(other.QuietHours) > 0 {
		p.QuietHours = other.QuietHours
	}
}

func (p *Preferences) clamp() {
	if p.DailyLikes > maxDailyLikes {
		p.DailyLikes = maxDailyLikes
	}
	if p.DailyComments > maxDailyComments {
		p.DailyComments = maxDailyComments
	}
	if p.DailyFollows > maxDailyFollows {
		p.DailyFollows = maxDailyFollows
	}
}
