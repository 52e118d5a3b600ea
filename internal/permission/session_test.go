package permission

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	issuer := newTokenIssuer([]byte("round-trip-key"), time.Hour)

	token, err := issuer.issue("user-9", "sess-9", RoleMaintainer)
	require.NoError(t, err)

	claims, err := issuer.validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-9", claims.SubjectID)
	assert.Equal(t, "sess-9", claims.SessionID)
	assert.Equal(t, "maintainer", claims.Role)
	assert.Equal(t, "aegis", claims.Issuer)
}

func TestSessionTokenRejectsWrongKey(t *testing.T) {
	issuer := newTokenIssuer([]byte("key-a"), time.Hour)
	other := newTokenIssuer([]byte("key-b"), time.Hour)

	token, err := issuer.issue("user-9", "sess-9", RoleViewer)
	require.NoError(t, err)

	_, err = other.validate(token)
	require.Error(t, err)
}

func TestResumeSessionRequiresLiveSession(t *testing.T) {
	svc, err := New([]byte("resume-key"))
	require.NoError(t, err)

	sess, err := svc.StartSession(context.Background(), "user-3", RoleEditor, "")
	require.NoError(t, err)

	id, err := svc.ResumeSession(context.Background(), sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, id)

	svc.EndSession(context.Background(), sess.ID)
	_, err = svc.ResumeSession(context.Background(), sess.Token)
	require.Error(t, err, "ended sessions cannot be resumed even with a valid token")
}

func TestDescribeDevice(t *testing.T) {
	chrome := "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	assert.Empty(t, describeDevice(""))
	assert.Contains(t, describeDevice(chrome), "Chrome")

	long := "custom-agent/" + strings.Repeat("x", 100)
	assert.LessOrEqual(t, len(describeDevice(long)), 64)
}
