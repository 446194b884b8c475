package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNameFor(t *testing.T) {
	assert.Equal(t, "files_package_json", TableNameFor("package.json"))
	assert.Equal(t, "files_composer_json", TableNameFor("composer.json"))
	assert.Equal(t, "files_cargo_toml", TableNameFor("Cargo.toml"))
	assert.Equal(t, "files__env", TableNameFor(".env"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", TruncateString("abc", 10))
	assert.Equal(t, "abc", TruncateString("abcdef", 3))
	assert.Equal(t, "", TruncateString("", 5))
}
