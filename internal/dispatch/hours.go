package dispatch

import (
	"time"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/config"
)

// Hours evaluates the business-hours schedule. Times compare as "HH:MM"
// strings, which orders correctly for zero-padded 24h values.
type Hours struct {
	cfg config.HoursConfig
}

func NewHours(cfg config.HoursConfig) Hours {
	return Hours{cfg: cfg}
}

// Within reports whether t falls inside business hours.
func (h Hours) Within(t time.Time) bool {
	clock := t.Format("15:04")

	switch t.Weekday() {
	case time.Sunday:
		return h.cfg.Sunday
	case time.Saturday:
		if !h.cfg.Saturday {
			return false
		}
		end := h.cfg.SaturdayEnd
		if end == "" {
			end = h.cfg.WeekdayEnd
		}
		return h.cfg.WeekdayStart <= clock && clock <= end
	default:
		return h.cfg.WeekdayStart <= clock && clock <= h.cfg.WeekdayEnd
	}
}
