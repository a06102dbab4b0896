package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Session:
		o.printSession(v)
	case Entry:
		o.printEntry(v)
	case DaySheet:
		o.printDaySheet(v)
	case Roster:
		o.printRoster(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Session response type (matches API)
type Session struct {
	Token    string `json:"token"`
	Identity string `json:"identity"`
	Role     string `json:"role"`
}

// Entry response type
type Entry struct {
	Date          string `json:"date"`
	Player        string `json:"player"`
	Availability  string `json:"availability"`
	DeclineReason string `json:"decline_reason,omitempty"`
	Attended      string `json:"attended"`
	State         string `json:"state"`
}

// DaySheet response type
type DaySheet struct {
	Date      string   `json:"date"`
	Entries   []Entry  `json:"entries"`
	Confirmed []string `json:"confirmed"`
}

// RosterPlayer response type
type RosterPlayer struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Warnings        int    `json:"warnings"`
	MissedDays      int    `json:"missed_days"`
	InvalidDeclines int    `json:"invalid_declines"`
	AutoRemove      bool   `json:"auto_remove"`
}

// RosterHost response type
type RosterHost struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Roster response type
type Roster struct {
	Players []RosterPlayer `json:"players"`
	Hosts   []RosterHost   `json:"hosts"`
}

func (o *Output) printSession(s Session) {
	fmt.Printf("Logged in as %s (%s)\n", s.Identity, s.Role)
}

func (o *Output) printEntry(e Entry) {
	fmt.Printf("%s  %s\n", e.Date, e.Player)
	fmt.Printf("  availability: %s", orDash(e.Availability))
	if e.DeclineReason != "" {
		fmt.Printf(" (%s)", e.DeclineReason)
	}
	fmt.Println()
	fmt.Printf("  attended:     %s\n", orDash(e.Attended))
	fmt.Printf("  state:        %s\n", e.State)
}

func (o *Output) printDaySheet(d DaySheet) {
	fmt.Printf("Day sheet for %s\n", d.Date)
	for _, e := range d.Entries {
		fmt.Printf("  %-30s availability=%-5s attended=%-5s %s\n",
			e.Player, orDash(e.Availability), orDash(e.Attended), e.State)
	}
	fmt.Printf("Confirmed (%d): %s\n", len(d.Confirmed), strings.Join(d.Confirmed, ", "))
}

func (o *Output) printRoster(r Roster) {
	fmt.Printf("Players (%d):\n", len(r.Players))
	for _, p := range r.Players {
		flags := ""
		if p.AutoRemove {
			flags = " [AUTO-REMOVE]"
		}
		fmt.Printf("  %-30s warnings=%d missed=%d invalid=%d%s\n",
			p.Email, p.Warnings, p.MissedDays, p.InvalidDeclines, flags)
	}
	fmt.Printf("Hosts (%d):\n", len(r.Hosts))
	for _, h := range r.Hosts {
		fmt.Printf("  %-30s %s\n", h.Email, h.Role)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
