package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/evalboard/core"
)

func testConfig() *core.Config {
	conf := &core.Config{AppName: "EvalBoard"}
	conf.Email.DefaultFromName = "EvalBoard"
	conf.Email.DefaultFromEmail = "noreply@example.com"
	return conf
}

func TestConsoleServiceMock_Send(t *testing.T) {
	svc := NewConsoleServiceMock(testConfig())
	before := len(SentMessages)

	to := []mail.Address{{Name: "Teacher", Address: "teacher@example.com"}}
	tests := []struct {
		name    string
		msg     *core.EmailMessage
		wantErr error
	}{
		{name: "no recipients", msg: &core.EmailMessage{Subject: "hi", BodyStr: "hello"}, wantErr: ErrNothingToSend},
		{name: "no content", msg: &core.EmailMessage{To: to, Subject: "hi"}, wantErr: ErrNothingToSend},
		{name: "text", msg: &core.EmailMessage{To: to, Subject: "hi", BodyStr: "hello"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.Send(tc.msg); errors.Cause(err) != tc.wantErr {
				t.Errorf("Send() = %v; want %v", err, tc.wantErr)
			}
		})
	}
	assert.Len(t, SentMessages, before+1)
}

func TestConsoleService_format(t *testing.T) {
	svc := NewConsoleServiceMock(testConfig()).(*consoleServiceMock)

	msg := core.EmailMessage{
		To:          []mail.Address{{Address: "teacher@example.com"}},
		Cc:          []mail.Address{{Address: "head@example.com"}},
		Subject:     "Ranking report",
		TextContent: "see attached",
	}
	require.NoError(t, msg.Attach(strings.NewReader("a,b\n1,2\n"), "ranking.csv", "text/csv"))

	body, err := svc.format(msg)
	require.NoError(t, err)
	assert.Contains(t, body, "Subject: [EvalBoard] Ranking report\r\n")
	assert.Contains(t, body, "CC: <head@example.com>\r\n")
	assert.Contains(t, body, "Content-Type: multipart/mixed; boundary=")
	assert.Contains(t, body, "attachment; filename=ranking.csv")
	assert.Contains(t, body, "see attached")
}
