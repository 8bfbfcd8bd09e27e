package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidPreferences = errors.New("invalid summary preferences")

// Length is the target summary length in words.
type Length int

const (
	LengthBrief    Length = 300
	LengthStandard Length = 500
	LengthDetailed Length = 700
)

// Fluency selects the writing style of the summary.
type Fluency string

const (
	FluencyBasic        Fluency = "basic"
	FluencyStandard     Fluency = "standard"
	FluencyProfessional Fluency = "professional"
)

// Preferences is replaced as a whole whenever the user changes a setting.
type Preferences struct {
	Length  Length  `json:"length"`
	Fluency Fluency `json:"fluency"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Length:  LengthStandard,
		Fluency: FluencyStandard,
	}
}

func (l Length) Valid() bool {
	switch l {
	case LengthBrief, LengthStandard, LengthDetailed:
		return true
	default:
		return false
	}
}

func (f Fluency) Valid() bool {
	switch f {
	case FluencyBasic, FluencyStandard, FluencyProfessional:
		return true
	default:
		return false
	}
}

func (p Preferences) Validate() error {
	if !p.Length.Valid() {
		return fmt.Errorf("%w: length %d", ErrInvalidPreferences, p.Length)
	}
	if !p.Fluency.Valid() {
		return fmt.Errorf("%w: fluency %q", ErrInvalidPreferences, p.Fluency)
	}

	return nil
}

func ParseLength(raw string) (Length, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: length %q", ErrInvalidPreferences, raw)
	}

	l := Length(n)
	if !l.Valid() {
		return 0, fmt.Errorf("%w: length %d", ErrInvalidPreferences, n)
	}

	return l, nil
}

func ParseFluency(raw string) (Fluency, error) {
	f := Fluency(strings.ToLower(strings.TrimSpace(raw)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: fluency %q", ErrInvalidPreferences, raw)
	}

	return f, nil
}

// ParsePreferences fills empty fields from DefaultPreferences.
func ParsePreferences(length, fluency string) (Preferences, error) {
	prefs := DefaultPreferences()

	if strings.TrimSpace(length) != "" {
		l, err := ParseLength(length)
		if err != nil {
			return Preferences{}, err
		}
		prefs.Length = l
	}

	if strings.TrimSpace(fluency) != "" {
		f, err := ParseFluency(fluency)
		if err != nil {
			return Preferences{}, err
		}
		prefs.Fluency = f
	}

	return prefs, nil
}

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

// Public returns the user without its password hash.
func (u User) Public() User {
	u.Password = ""
	return u
}
