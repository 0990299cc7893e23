package mailer

import (
	"fmt"
	"strings"

	"github.com/tbnobed/obview/internal/model"
)

// BuildInvite renders the invitation email.  The accept link lands on
// the web client, which walks the recipient through sign-in before
// calling the accept endpoint.
func BuildInvite(baseURL, from string, inv model.Invitation, projectName, inviterName string) Message {
	link := fmt.Sprintf("%s/invite/%s", strings.TrimRight(baseURL, "/"), inv.Token)
	expires := inv.ExpiresAt.UTC().Format("Jan 2, 2006 15:04 MST")

	subject := fmt.Sprintf("%s invited you to review %q", inviterName, projectName)
	text := fmt.Sprintf(
		"%s invited you to join the project %q as %s.\n\nOpen the link below to accept:\n%s\n\nThe invitation expires %s.\n",
		inviterName, projectName, inv.Role, link, expires)
	html := fmt.Sprintf(
		`<p>%s invited you to join the project <strong>%s</strong> as %s.</p>`+
			`<p><a href="%s">Accept invitation</a></p>`+
			`<p>The invitation expires %s.</p>`,
		inviterName, projectName, inv.Role, link, expires)

	return Message{
		To:      inv.Email,
		From:    from,
		Subject: subject,
		Text:    text,
		HTML:    html,
	}
}
