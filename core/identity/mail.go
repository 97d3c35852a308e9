package identity

import (
	"net/mail"

	"github.com/trezcool/csiportal/core"
)

type welcomeData struct {
	Name      string
	RoleLabel string
	Role      Role
}

// NewWelcomeMessage is the e-mail sent to a freshly signed up Identity.
func NewWelcomeMessage(id Identity) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: id.Name, Address: id.Email}},
		Subject:      "Welcome to the CSI Portal",
		TemplateName: "welcome",
		TemplateData: welcomeData{Name: id.Name, RoleLabel: id.Role.Label(), Role: id.Role},
	}
}
