package bot

import (
	"encoding/json"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dkozyrev/cavewatch/internal/service/tracker"
)

// payload mirrors the JSON the web-app form posts through Telegram.
type payload struct {
	Name          string `json:"name"`
	System        string `json:"system"`
	DepartureDate string `json:"date_down"`
	DepartureTime string `json:"time_down"`
	ExitDate      string `json:"date_up"`
	ExitTime      string `json:"time_up"`
	Control       string `json:"control"`
	Participants  string `json:"participants"`
	Purpose       string `json:"purpose"`
	Phone         string `json:"phone"`
	Additional    string `json:"additional"`
}

// parseSubmission decodes the web-app payload into a tracker submission.
// The display name freezes the sender's handle next to the self-reported
// name, so alerts stay readable even if the account is renamed later.
func parseSubmission(data string, from *tgbotapi.User) (tracker.Submission, error) {
	var p payload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return tracker.Submission{}, fmt.Errorf("decode form payload: %w", err)
	}

	return tracker.Submission{
		SubmitterID:   from.ID,
		DisplayName:   displayName(p.Name, from),
		System:        strings.TrimSpace(p.System),
		DepartureDate: strings.TrimSpace(p.DepartureDate),
		DepartureTime: strings.TrimSpace(p.DepartureTime),
		ExitDate:      strings.TrimSpace(p.ExitDate),
		ExitTime:      strings.TrimSpace(p.ExitTime),
		Control:       strings.TrimSpace(p.Control),
		Participants:  strings.TrimSpace(p.Participants),
		Purpose:       strings.TrimSpace(p.Purpose),
		Phone:         strings.TrimSpace(p.Phone),
		Additional:    strings.TrimSpace(p.Additional),
	}, nil
}

// displayName combines the self-reported name with the Telegram handle.
func displayName(reported string, from *tgbotapi.User) string {
	handle := from.UserName
	if handle != "" {
		handle = "@" + handle
	} else {
		handle = strings.TrimSpace(from.FirstName + " " + from.LastName)
	}

	reported = strings.TrimSpace(reported)
	if reported == "" {
		return handle
	}

	if handle == "" {
		return reported
	}

	return fmt.Sprintf("%s (%s)", reported, handle)
}
