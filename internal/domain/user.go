// Package domain contains entities without transport or lifecycle logic.
package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MaxUsernameLen = 20
	MaxRoomNameLen = 30
	MaxMessageLen  = 200
)

var (
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
	ErrRoomNameEmpty   = errors.New("room name empty")
	ErrRoomNameTooLong = errors.New("room name too long")
	ErrMessageEmpty    = errors.New("message empty")
	ErrMessageTooLong  = errors.New("message too long")
)

var validate = validator.New()

// ValidateUsername trims raw and checks it against maxLen characters.
// The trimmed value is what callers must store.
func ValidateUsername(raw string, maxLen int) (string, error) {
	return checkField(raw, maxLen, ErrUsernameEmpty, ErrUsernameTooLong)
}

func ValidateRoomName(raw string, maxLen int) (string, error) {
	return checkField(raw, maxLen, ErrRoomNameEmpty, ErrRoomNameTooLong)
}

// ValidateMessageText rejects text that is empty after trimming or longer
// than maxLen characters once trimmed.
func ValidateMessageText(raw string, maxLen int) (string, error) {
	return checkField(raw, maxLen, ErrMessageEmpty, ErrMessageTooLong)
}

func checkField(raw string, maxLen int, errEmpty, errTooLong error) (string, error) {
	s := strings.TrimSpace(raw)
	err := validate.Var(s, fmt.Sprintf("required,max=%d", maxLen))
	if err == nil {
		return s, nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "max" {
		return "", errTooLong
	}
	return "", errEmpty
}
