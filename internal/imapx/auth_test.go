package imapx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skobu/mailrelay/pkg/models"
)

func TestPasswordManualMode(t *testing.T) {
	account := &models.Account{
		Username:     "taro.yamada@example.com",
		Password:     "s3cret",
		PasswordMode: models.PasswordManual,
	}
	password, err := Password(account)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", password)
}

func TestPasswordDeriveMode(t *testing.T) {
	account := &models.Account{
		Username:       "taro.yamada@example.com",
		PasswordMode:   models.PasswordDerive,
		PasswordPrefix: "Ab",
		PasswordSuffix: "Z9",
	}
	password, err := Password(account)
	require.NoError(t, err)
	// local part "taro.yamada": first 't', last 'a'
	assert.Equal(t, "Abta.Z9", password)
}

func TestPasswordDeriveWithoutAtSign(t *testing.T) {
	account := &models.Account{
		Username:       "taro",
		PasswordMode:   models.PasswordDerive,
		PasswordPrefix: "x",
	}
	password, err := Password(account)
	require.NoError(t, err)
	assert.Equal(t, "xto.", password)
}

func TestPasswordDeriveEmptyLocalPart(t *testing.T) {
	account := &models.Account{
		Username:       "@example.com",
		PasswordMode:   models.PasswordDerive,
		PasswordPrefix: "x",
	}
	_, err := Password(account)
	assert.ErrorIs(t, err, ErrPasswordConfig)
}

func TestPasswordDeriveWithoutPrefixOrSuffix(t *testing.T) {
	account := &models.Account{
		Username:     "taro@example.com",
		PasswordMode: models.PasswordDerive,
	}
	_, err := Password(account)
	assert.ErrorIs(t, err, ErrPasswordConfig)
}
