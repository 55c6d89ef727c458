package internal

import "fmt"

// Calendar is one configured source calendar.
type Calendar struct {
	ID      string
	Label   string
	Privacy PrivacyMode
	Enabled bool
	ColorID string
	// Account is the name of the account whose credentials can read the
	// calendar.
	Account string
}

func (c Calendar) String() string {
	return c.ID
}

// PrivacyMode controls how much of a source event reaches the destination.
type PrivacyMode int

const (
	PrivacyFull PrivacyMode = iota
	PrivacyBusy
	PrivacyTitleOnly
)

func ParsePrivacyMode(s string) (PrivacyMode, error) {
	switch s {
	case "", "full":
		return PrivacyFull, nil
	case "busy":
		return PrivacyBusy, nil
	case "title-only":
		return PrivacyTitleOnly, nil
	}
	return 0, fmt.Errorf("unknown privacy mode %q", s)
}

func (m PrivacyMode) String() string {
	switch m {
	case PrivacyFull:
		return "full"
	case PrivacyBusy:
		return "busy"
	case PrivacyTitleOnly:
		return "title-only"
	}
	return fmt.Sprintf("PrivacyMode(%d)", int(m))
}
