package mail

import (
	"context"

	"github.com/backdeskhq/backdesk/pkg/slogx"
)

// LogMailer writes mail to the log instead of delivering it. Used in
// development and tests where no SMTP server is available.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) Send(ctx context.Context, tpl Template, to string, data Data) error {
	subject, _, err := render(tpl, data)
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("mail (log delivery)",
		"template", string(tpl),
		"to", to,
		"subject", subject,
		"link", data.Link,
	)
	return nil
}
