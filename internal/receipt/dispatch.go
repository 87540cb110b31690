package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/Mani87-nq/yardbooks-pos/internal/obs"
)

// Task type names on the receipt delivery queue.
const (
	TaskPrint = "receipt:print"
	TaskEmail = "receipt:email"
)

// DefaultQueue is the asynq queue receipts are delivered on.
const DefaultQueue = "receipts"

// PrintPayload is the print job body.
type PrintPayload struct {
	Document Document `json:"document"`
	Copies   int      `json:"copies"`
}

// EmailPayload is the email job body.
type EmailPayload struct {
	Document Document `json:"document"`
	To       string   `json:"to"`
}

// Dispatcher enqueues receipt delivery jobs. Enqueueing is fire-and-forget
// from the checkout's point of view: a failed enqueue never fails a sale.
type Dispatcher struct {
	Client *asynq.Client
	Queue  string
}

func (d *Dispatcher) queue() string {
	if d == nil || d.Queue == "" {
		return DefaultQueue
	}
	return d.Queue
}

// EnqueuePrint schedules printing of the given number of copies.
func (d *Dispatcher) EnqueuePrint(ctx context.Context, doc Document, copies int) error {
	if d == nil || d.Client == nil {
		return errors.New("receipt dispatcher not configured")
	}
	if copies < 1 {
		copies = 1
	}
	payload, err := json.Marshal(PrintPayload{Document: doc, Copies: copies})
	if err != nil {
		return fmt.Errorf("encode print payload: %w", err)
	}
	task := asynq.NewTask(TaskPrint, payload)
	_, err = d.Client.EnqueueContext(ctx, task, asynq.Queue(d.queue()), asynq.MaxRetry(5))
	return err
}

// EnqueueEmail schedules an emailed copy of the receipt.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, doc Document, to string) error {
	if d == nil || d.Client == nil {
		return errors.New("receipt dispatcher not configured")
	}
	if to == "" {
		return errors.New("recipient is required")
	}
	payload, err := json.Marshal(EmailPayload{Document: doc, To: to})
	if err != nil {
		return fmt.Errorf("encode email payload: %w", err)
	}
	task := asynq.NewTask(TaskEmail, payload)
	_, err = d.Client.EnqueueContext(ctx, task, asynq.Queue(d.queue()), asynq.MaxRetry(5))
	return err
}

// Printer renders a receipt document on physical hardware.
type Printer interface {
	Print(ctx context.Context, doc Document) error
}

// Mailer sends a receipt document to an email address.
type Mailer interface {
	SendReceipt(ctx context.Context, to string, doc Document) error
}

// Processor consumes receipt delivery tasks in the worker.
type Processor struct {
	Printer Printer
	Mailer  Mailer
	Logger  zerolog.Logger
}

// HandlePrint processes a print task.
func (p *Processor) HandlePrint(ctx context.Context, task *asynq.Task) error {
	var payload PrintPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode print payload: %w", err)
	}
	if p.Printer == nil {
		return errors.New("printer not configured")
	}
	for i := 0; i < payload.Copies; i++ {
		if err := p.Printer.Print(ctx, payload.Document); err != nil {
			p.count("print", "error")
			return fmt.Errorf("print copy %d/%d: %w", i+1, payload.Copies, err)
		}
	}
	p.count("print", "ok")
	p.Logger.Info().
		Str("order_number", payload.Document.OrderNumber).
		Int("copies", payload.Copies).
		Msg("receipt printed")
	return nil
}

// HandleEmail processes an email task.
func (p *Processor) HandleEmail(ctx context.Context, task *asynq.Task) error {
	var payload EmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode email payload: %w", err)
	}
	if p.Mailer == nil {
		return errors.New("mailer not configured")
	}
	if err := p.Mailer.SendReceipt(ctx, payload.To, payload.Document); err != nil {
		p.count("email", "error")
		return fmt.Errorf("send receipt email: %w", err)
	}
	p.count("email", "ok")
	p.Logger.Info().
		Str("order_number", payload.Document.OrderNumber).
		Str("to", payload.To).
		Msg("receipt emailed")
	return nil
}

func (p *Processor) count(kind, result string) {
	if obs.ReceiptTaskTotal != nil {
		obs.ReceiptTaskTotal.WithLabelValues(kind, result).Inc()
	}
}

// Register attaches the processor's handlers to an asynq mux.
func (p *Processor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskPrint, p.HandlePrint)
	mux.HandleFunc(TaskEmail, p.HandleEmail)
}

// LogPrinter is a Printer that only logs, used when no hardware is attached.
type LogPrinter struct {
	Logger zerolog.Logger
}

// Print implements Printer.
func (l LogPrinter) Print(_ context.Context, doc Document) error {
	l.Logger.Info().
		Str("order_number", doc.OrderNumber).
		Int64("total", doc.Total).
		Str("method", string(doc.Payment.Method)).
		Msg("receipt (no printer attached)")
	return nil
}
