package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	assert.True(t, strings.HasPrefix(ua, "trustserv/"), ua)
	assert.NotEqual(t, "trustserv/", ua)
}

func TestStringMarksDirtyBuilds(t *testing.T) {
	origRevision, origModified := Revision, Modified
	t.Cleanup(func() {
		Revision, Modified = origRevision, origModified
	})

	Revision = "abc123"
	Modified = false
	assert.Equal(t, "abc123", String())
	Modified = true
	assert.Equal(t, "abc123-dirty", String())
}
