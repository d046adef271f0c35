package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssetByFilename(t *testing.T) {
	a, ok := AssetByFilename("neuroConstruct_unix_1_0_1.sh")
	assert.True(t, ok)
	assert.Equal(t, "Linux", a.Platform)
	assert.True(t, a.Current)

	a, ok = AssetByFilename("neuroConstruct_windows_0_9_8.exe")
	assert.True(t, ok)
	assert.False(t, a.Current)
}

func TestAssetByFilenameRejectsUnknown(t *testing.T) {
	names := []string{
		"",
		"neuroConstruct_unix_1_0_1",
		"../../etc/passwd",
		"neuroConstruct_unix_1_0_1.sh/../secret",
		"/etc/shadow",
		"NEUROCONSTRUCT_UNIX_1_0_1.SH",
	}
	for _, name := range names {
		_, ok := AssetByFilename(name)
		assert.False(t, ok, name)
	}
}

func TestCatalogSplit(t *testing.T) {
	current := 0
	for _, a := range Catalog {
		if a.Current {
			current++
			assert.Equal(t, "1.0.1", a.Version)
		}
	}
	assert.Equal(t, 4, current)
}
