package main

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/common"
)

func TestDescribe(t *testing.T) {
	v := common.NewValidationError()
	v.Add("password", "This password is too short.")
	v.Add("password", "This password is too common.")
	v.Add("email", "Enter a valid email address.")

	err := describe(v)
	assert.Equal(t, "email: Enter a valid email address.\npassword: This password is too short. This password is too common.", err.Error())

	plain := errors.New("db down")
	assert.Same(t, plain, describe(plain))
}

func TestPrompt(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("  root@example.com \nRoot"))

	got, err := prompt(in, "Email: ")
	require.NoError(t, err)
	assert.Equal(t, "root@example.com", got)

	got, err = prompt(in, "First name: ")
	require.NoError(t, err)
	assert.Equal(t, "Root", got)
}
