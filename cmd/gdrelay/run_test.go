package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettingsDirs_PrefersExplicitArg(t *testing.T) {
	assert.Equal(t, []string{"/custom"}, settingsDirs([]string{"/custom"}))
}

func TestSettingsDirs_DefaultsWhenNoArg(t *testing.T) {
	assert.Equal(t, []string{".", "/etc/gdrelay"}, settingsDirs(nil))
}
