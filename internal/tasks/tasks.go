package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/alairock/kash-money/internal/config"
	"github.com/alairock/kash-money/internal/email"
	"github.com/alairock/kash-money/internal/pdf"
	"github.com/alairock/kash-money/internal/services"
	"github.com/alairock/kash-money/internal/storage"
)

const (
	// TypeInvoiceEmail delivers an invoice to its client: render PDF,
	// assemble MIME message, send, archive, mark sent.
	TypeInvoiceEmail = "invoice:email"
)

// InvoiceEmailPayload identifies the invoice to deliver and any extra cc
// addresses the user typed on the send screen.
type InvoiceEmailPayload struct {
	UserID    string   `json:"user_id"`
	InvoiceID string   `json:"invoice_id"`
	Cc        []string `json:"cc,omitempty"`
}

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// EnqueueInvoiceEmail queues an invoice delivery task.
func EnqueueInvoiceEmail(client *asynq.Client, payload InvoiceEmailPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal invoice email payload: %w", err)
	}
	if _, err := client.Enqueue(asynq.NewTask(TypeInvoiceEmail, data), asynq.Queue("default")); err != nil {
		return fmt.Errorf("failed to enqueue invoice email task: %w", err)
	}
	return nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg             *config.Config
	emailSender     email.Sender
	invoiceService  services.IInvoiceService
	clientService   services.IClientService
	settingsService services.ISettingsService
	userService     services.IUserService
	archive         storage.IInvoiceArchive
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	invoiceService services.IInvoiceService,
	clientService services.IClientService,
	settingsService services.ISettingsService,
	userService services.IUserService,
	archive storage.IInvoiceArchive,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:             cfg,
		emailSender:     emailSender,
		invoiceService:  invoiceService,
		clientService:   clientService,
		settingsService: settingsService,
		userService:     userService,
		archive:         archive,
	}
}

// SetupServer configures and returns an Asynq server instance with the
// invoice delivery handler registered.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeInvoiceEmail, processor.HandleInvoiceEmailTask)

	return srv, mux
}

// HandleInvoiceEmailTask delivers one invoice. Failures after the send has
// gone out are logged, not retried: re-running the task would re-send the
// email, and invoice delivery is deliberately not idempotent.
func (p *TaskProcessor) HandleInvoiceEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload InvoiceEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal invoice email payload: %v: %w", err, asynq.SkipRetry)
	}

	invoice, err := p.invoiceService.FindByID(ctx, payload.UserID, payload.InvoiceID)
	if err != nil {
		return fmt.Errorf("invoice %s not found for delivery: %v: %w", payload.InvoiceID, err, asynq.SkipRetry)
	}

	client, err := p.clientService.FindByID(ctx, payload.UserID, invoice.ClientID)
	if err != nil {
		return fmt.Errorf("client %s not found for invoice %s: %v: %w", invoice.ClientID, invoice.Number, err, asynq.SkipRetry)
	}

	company, err := p.settingsService.GetCompanySettings(ctx, payload.UserID)
	if err != nil {
		return err
	}

	// Default cc is the account owner's email: company settings email if
	// present, else the login email.
	ownerEmail := company.Email
	if ownerEmail == "" {
		if owner, err := p.userService.FindByID(ctx, payload.UserID); err == nil {
			ownerEmail = owner.Email
		}
	}

	pdfBytes, err := pdf.RenderInvoice(invoice, client, company)
	if err != nil {
		return err
	}

	fromName := company.CompanyName
	if fromName == "" {
		fromName = p.cfg.AppName
	}
	msg := &email.InvoiceMessage{
		To:      client.Email,
		Cc:      payload.Cc,
		Subject: fmt.Sprintf("Invoice %s from %s", invoice.Number, fromName),
		HTMLBody: fmt.Sprintf(
			"<p>Hi %s,</p><p>Please find invoice <strong>%s</strong> attached. The total due is <strong>$%.2f</strong> by %s.</p><p>Thank you,<br>%s</p>",
			client.Name, invoice.Number, invoice.Total, invoice.DateDue.Format("January 2, 2006"), fromName),
		TextBody: fmt.Sprintf(
			"Hi %s,\n\nPlease find invoice %s attached. The total due is $%.2f by %s.\n\nThank you,\n%s\n",
			client.Name, invoice.Number, invoice.Total, invoice.DateDue.Format("January 2, 2006"), fromName),
		AttachmentName: fmt.Sprintf("%s.pdf", invoice.Number),
		Attachment:     pdfBytes,
	}

	recipients := email.RecipientList(client.Email, payload.Cc, ownerEmail, p.cfg.MaxEmailRecipients)
	messageID, raw, err := msg.Build(p.cfg.SmtpFromAddress, recipients)
	if err != nil {
		return fmt.Errorf("failed to build invoice email for %s: %v: %w", invoice.Number, err, asynq.SkipRetry)
	}

	if err := p.emailSender.Send(ctx, recipients, msg.Subject, raw); err != nil {
		return fmt.Errorf("failed to send invoice %s: %w", invoice.Number, err)
	}
	log.Printf("Invoice %s sent to %v (message id %s)", invoice.Number, recipients, messageID)

	pdfKey := ""
	if p.archive != nil && p.archive.Enabled() {
		key, err := p.archive.ArchiveInvoicePDF(ctx, payload.UserID, invoice.Number, pdfBytes)
		if err != nil {
			log.Printf("WARNING: failed to archive PDF for invoice %s: %v", invoice.Number, err)
		} else {
			pdfKey = key
		}
	}

	if err := p.invoiceService.MarkSent(ctx, payload.UserID, payload.InvoiceID, pdfKey); err != nil {
		log.Printf("WARNING: invoice %s delivered but not marked sent: %v", invoice.Number, err)
	}
	return nil
}
