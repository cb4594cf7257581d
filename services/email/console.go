package emailsvc

import (
	"fmt"
	"log"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/chuolink/shule/core"
)

var (
	SentMessages = make([]core.EmailMessage, 0)
	mu           sync.Mutex
)

type consoleService struct {
	defaultFromEmail mail.Address
	subjPrefix       string
	disableOutput    bool
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService() core.EmailService {
	return &consoleService{
		defaultFromEmail: core.Conf.DefaultFromEmail(),
		subjPrefix:       "[" + core.Conf.AppName + "] ",
	}
}

// NewConsoleServiceMock sends synchronously and records messages in
// SentMessages instead of printing; for tests.
func NewConsoleServiceMock() core.EmailService {
	return &consoleService{
		defaultFromEmail: core.Conf.DefaultFromEmail(),
		subjPrefix:       "[" + core.Conf.AppName + "] ",
		disableOutput:    true,
	}
}

func (svc consoleService) SendMessages(messages ...*core.EmailMessage) {
	if svc.disableOutput {
		// synchronous in tests
		for _, msg := range messages {
			svc.sendMessage(msg)
		}
		return
	}
	for _, msg := range messages {
		go svc.sendMessage(msg)
	}
}

func (svc consoleService) sendMessage(msg *core.EmailMessage) {
	if msg.HasRecipients() && msg.HasContent() {
		svc.send(*msg)
	}
}

func (svc consoleService) send(msg core.EmailMessage) {
	mu.Lock()
	SentMessages = append(SentMessages, msg)
	mu.Unlock()

	if svc.disableOutput {
		return
	}

	var out strings.Builder
	out.WriteString(fmt.Sprintf("From: %s\n", svc.defaultFromEmail.String()))
	out.WriteString(fmt.Sprintf("To: %s\n", joinAddresses(msg.To)))
	if len(msg.Cc) > 0 {
		out.WriteString(fmt.Sprintf("Cc: %s\n", joinAddresses(msg.Cc)))
	}
	if len(msg.Bcc) > 0 {
		out.WriteString(fmt.Sprintf("Bcc: %s\n", joinAddresses(msg.Bcc)))
	}
	out.WriteString(fmt.Sprintf("Date: %s\n", time.Now().Format(time.RFC1123Z)))
	out.WriteString(fmt.Sprintf("Subject: %s%s\n\n", svc.subjPrefix, msg.Subject))
	out.WriteString(msg.Body)
	log.Printf("sending email:\n%s\n", out.String())
}

func joinAddresses(addrs []mail.Address) string {
	strs := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		strs = append(strs, addr.String())
	}
	return strings.Join(strs, ", ")
}
