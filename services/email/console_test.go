package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/csiportal/core"
	"github.com/trezcool/csiportal/core/identity"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := &core.Config{
		AppName:          "CSI Portal",
		FrontendBaseURL:  "http://csi.test",
		DefaultFromEmail: mail.Address{Name: "CSI", Address: "noreply@csi.test"},
	}
	svc := NewConsoleServiceMock(conf)

	welcome := identity.NewWelcomeMessage(identity.Identity{ID: "user-1", Name: "Asha", Email: "asha@csi.edu", Role: identity.RoleStudent})
	plain := &core.EmailMessage{To: []mail.Address{{Address: "a@x.com"}}, Subject: "Hi", BodyStr: "hello"}
	noRecipient := &core.EmailMessage{Subject: "Lost", BodyStr: "nobody"}
	svc.SendMessages(welcome, plain, noRecipient)

	sent := svc.Sent()
	if assert.Len(t, sent, 2) {
		assert.Equal(t, "Welcome to the CSI Portal", sent[0].Subject)
		assert.True(t, strings.HasPrefix(sent[0].TextContent, "Hi Asha,"))
		assert.Contains(t, sent[0].HTMLContent, "Student account")
		assert.Equal(t, "hello", sent[1].TextContent)
		assert.Empty(t, sent[1].HTMLContent)
	}
}

func TestConsoleServiceMock_unknownTemplate(t *testing.T) {
	svc := NewConsoleServiceMock(&core.Config{})
	svc.SendMessages(&core.EmailMessage{To: []mail.Address{{Address: "a@x.com"}}, TemplateName: "lol"})
	assert.Empty(t, svc.Sent())
}

func Test_sendgridService_prepare(t *testing.T) {
	conf := &core.Config{
		AppName:          "CSI Portal",
		DefaultFromEmail: mail.Address{Name: "CSI", Address: "noreply@csi.test"},
	}
	svc := NewSendgridService(conf, core.NopLogger()).(*sendgridService)

	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Name: "Asha", Address: "asha@csi.edu"}},
		Cc:          []mail.Address{{Address: "cc@csi.edu"}},
		Subject:     "Welcome",
		TextContent: "hi",
		HTMLContent: "<p>hi</p>",
	})
	assert.Equal(t, "noreply@csi.test", m.From.Address)
	if assert.Len(t, m.Personalizations, 1) {
		p := m.Personalizations[0]
		assert.Equal(t, "[CSI Portal] Welcome", p.Subject)
		assert.Equal(t, "asha@csi.edu", p.To[0].Address)
		assert.Equal(t, "cc@csi.edu", p.CC[0].Address)
	}
	assert.Len(t, m.Content, 2)
}
