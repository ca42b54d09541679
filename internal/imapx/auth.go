package imapx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/skobu/mailrelay/pkg/models"
)

// ErrPasswordConfig is returned when an account's password settings cannot
// produce a usable secret. The account stays broken until its configuration
// is fixed; reconnecting will not help.
var ErrPasswordConfig = errors.New("account password configuration invalid")

// Password resolves the secret used to authenticate an account. Manual mode
// uses the stored password verbatim. Derive mode builds the password from the
// login name's local part: prefix + first char + last char + "." + suffix.
func Password(account *models.Account) (string, error) {
	if account.PasswordMode != models.PasswordDerive {
		return account.Password, nil
	}

	localPart, _, _ := strings.Cut(account.Username, "@")
	if localPart == "" {
		return "", fmt.Errorf("%w: username %q has no local part", ErrPasswordConfig, account.Username)
	}

	if account.PasswordPrefix == "" && account.PasswordSuffix == "" {
		return "", fmt.Errorf("%w: derive mode needs a password prefix or suffix", ErrPasswordConfig)
	}

	runes := []rune(localPart)
	first := string(runes[0])
	last := string(runes[len(runes)-1])

	return account.PasswordPrefix + first + last + "." + account.PasswordSuffix, nil
}
